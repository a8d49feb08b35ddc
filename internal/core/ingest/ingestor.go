// Package ingest implements the Transfer Ingestor (C2): drives the
// provider's paginated transfer history, classifies each raw event into
// a model.Transfer, and batches inserts through the dedup-upsert DAO
// (spec §4.2). Pagination loop grounded on pkg/moralis.MoralisClient's
// cursor walk, adapted from a page-callback style into an explicit
// cursor returned to the caller.
package ingest

import (
	"context"

	"go.uber.org/zap"

	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/errs"
	"smartwallet/internal/core/model"
	"smartwallet/internal/core/monitor"
	"smartwallet/internal/core/price"
	"smartwallet/internal/core/provider"
)

const ingestBatchSize = 500

type Ingestor struct {
	dp        provider.DataProvider
	transfers dao.TransferDAO
	resolver  price.Resolver
	pageSize  int
	logger    *zap.Logger
}

func New(dp provider.DataProvider, transfers dao.TransferDAO, resolver price.Resolver, pageSize int, logger *zap.Logger) *Ingestor {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Ingestor{dp: dp, transfers: transfers, resolver: resolver, pageSize: pageSize, logger: logger}
}

// IngestWallet walks every fungible_id's full transfer history for one
// wallet, classifying and batching as it goes (spec §4.2
// fetch_full_history, driven per-token since the provider's cursor is
// scoped to one (wallet, fungible_id) pair).
func (i *Ingestor) IngestWallet(ctx context.Context, wallet, chain string, fungibleIDs []string) errs.UnitResult {
	var batch []model.Transfer
	for _, fungibleID := range fungibleIDs {
		fetched, res := i.fetchToken(ctx, wallet, chain, fungibleID)
		if res.Failed() {
			return res
		}
		batch = append(batch, fetched...)
		if len(batch) >= ingestBatchSize {
			if err := i.transfers.BatchInsert(ctx, batch); err != nil {
				return errs.UnitResult{Subject: wallet, Err: errs.New("ingest.batch_insert", errs.KindExternal, err)}
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := i.transfers.BatchInsert(ctx, batch); err != nil {
			return errs.UnitResult{Subject: wallet, Err: errs.New("ingest.batch_insert", errs.KindExternal, err)}
		}
	}
	return errs.UnitResult{Subject: wallet}
}

// ReplaceHistory implements spec §4.2's replace_history: walks one
// token's full transfer history fresh, then deletes and re-inserts the
// stored rows for (wallet, fungible_id) in one pass, eliminating the
// dedup edge cases a resumed cursor walk could hit (spec §4.7 step 5).
func (i *Ingestor) ReplaceHistory(ctx context.Context, wallet, chain, fungibleID string) ([]model.Transfer, errs.UnitResult) {
	fetched, res := i.fetchToken(ctx, wallet, chain, fungibleID)
	if res.Failed() {
		return nil, res
	}
	if err := i.transfers.ReplaceHistory(ctx, wallet, fungibleID, fetched); err != nil {
		return nil, errs.UnitResult{Subject: wallet, Err: errs.New("ingest.replace_history", errs.KindExternal, err)}
	}
	return fetched, errs.UnitResult{Subject: wallet}
}

// fetchToken walks one (wallet, fungible_id)'s full transfer history
// through the provider's cursor, classifying every page.
func (i *Ingestor) fetchToken(ctx context.Context, wallet, chain, fungibleID string) ([]model.Transfer, errs.UnitResult) {
	var out []model.Transfer
	cursor := ""
	for {
		page, err := i.dp.ListTransfers(ctx, wallet, chain, fungibleID, cursor, i.pageSize)
		if err != nil {
			monitor.IngestErrors.WithLabelValues("fetch").Inc()
			return nil, errs.UnitResult{Subject: wallet, Err: errs.New("ingest.list_transfers", errs.KindTransient, err)}
		}
		monitor.IngestTransfersFetched.WithLabelValues(chain).Add(float64(len(page.Transfers)))

		for _, raw := range page.Transfers {
			t, err := i.classify(ctx, chain, raw)
			if err != nil {
				monitor.IngestErrors.WithLabelValues("classify").Inc()
				i.logger.Warn("skipping unclassifiable transfer", zap.String("wallet", wallet), zap.String("hash", raw.TransactionHash), zap.Error(err))
				continue
			}
			t.Wallet = wallet
			out = append(out, t)
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return out, errs.UnitResult{Subject: wallet}
}

// classify implements spec §4.2's normalization rules: incoming with a
// nonzero quote paid is a buy, outgoing with a nonzero quote received is
// a sell, incoming with zero cost is an airdrop, anything else is a
// peer transfer tagged by direction.
func (i *Ingestor) classify(ctx context.Context, chain string, raw provider.RawTransfer) (model.Transfer, error) {
	direction := model.Direction(raw.Direction)

	var action model.ActionType
	switch {
	case direction == model.DirectionIn && raw.QuoteUSD != nil && *raw.QuoteUSD > 0:
		action = model.ActionBuy
	case direction == model.DirectionOut && raw.QuoteUSD != nil && *raw.QuoteUSD > 0:
		action = model.ActionSell
	case direction == model.DirectionIn:
		action = model.ActionAirdrop
	case direction == model.DirectionOut:
		action = model.ActionTransferOut
	default:
		action = model.ActionTransferIn
	}

	var pricePerToken *float64
	switch {
	case raw.QuoteUSD != nil && raw.Quantity > 0:
		p := *raw.QuoteUSD / raw.Quantity
		pricePerToken = &p
	case action == model.ActionAirdrop:
		// zero-cost lot, left nil: fifo.Engine treats a nil cost as a
		// zero-cost lot for buy/transfer_in classification.
	default:
		if resolved, _, err := i.resolver.Price(ctx, chain, raw.Contract); err == nil {
			pricePerToken = resolved
		}
	}

	return model.Transfer{
		TransactionHash:     raw.TransactionHash,
		Symbol:              raw.Symbol,
		ContractAddress:     raw.Contract,
		FungibleID:          raw.FungibleID,
		Direction:           direction,
		ActionType:          action,
		Quantity:            raw.Quantity,
		PricePerToken:       pricePerToken,
		CounterpartyAddress: raw.CounterpartyAddress,
		Timestamp:           raw.Timestamp,
		BlockNumber:         raw.BlockNumber,
	}, nil
}
