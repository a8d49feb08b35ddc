package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartwallet/internal/core/model"
	"smartwallet/internal/core/provider"
)

type fakeResolver struct {
	price *float64
}

func (f fakeResolver) Price(ctx context.Context, chain, contract string) (*float64, string, error) {
	return f.price, "fake", nil
}

func quote(v float64) *float64 { return &v }

func TestClassify_IncomingWithQuoteIsBuy(t *testing.T) {
	ing := New(nil, nil, fakeResolver{}, 0, zap.NewNop())
	raw := provider.RawTransfer{Direction: "in", Quantity: 10, QuoteUSD: quote(100)}

	tr, err := ing.classify(context.Background(), "ethereum", raw)

	require.NoError(t, err)
	require.Equal(t, model.ActionBuy, tr.ActionType)
	require.Equal(t, model.DirectionIn, tr.Direction)
	require.NotNil(t, tr.PricePerToken)
	require.InDelta(t, 10.0, *tr.PricePerToken, 0.0001)
}

func TestClassify_OutgoingWithQuoteIsSell(t *testing.T) {
	ing := New(nil, nil, fakeResolver{}, 0, zap.NewNop())
	raw := provider.RawTransfer{Direction: "out", Quantity: 5, QuoteUSD: quote(50)}

	tr, err := ing.classify(context.Background(), "ethereum", raw)

	require.NoError(t, err)
	require.Equal(t, model.ActionSell, tr.ActionType)
}

func TestClassify_IncomingNoQuoteIsAirdropWithNilCost(t *testing.T) {
	ing := New(nil, nil, fakeResolver{}, 0, zap.NewNop())
	raw := provider.RawTransfer{Direction: "in", Quantity: 5}

	tr, err := ing.classify(context.Background(), "ethereum", raw)

	require.NoError(t, err)
	require.Equal(t, model.ActionAirdrop, tr.ActionType)
	require.Nil(t, tr.PricePerToken)
}

func TestClassify_OutgoingNoQuoteIsTransferOutResolvedPrice(t *testing.T) {
	ing := New(nil, nil, fakeResolver{price: quote(3.0)}, 0, zap.NewNop())
	raw := provider.RawTransfer{Direction: "out", Quantity: 5}

	tr, err := ing.classify(context.Background(), "ethereum", raw)

	require.NoError(t, err)
	require.Equal(t, model.ActionTransferOut, tr.ActionType)
	require.NotNil(t, tr.PricePerToken)
	require.Equal(t, 3.0, *tr.PricePerToken)
}

type fakeDataProvider struct {
	pages map[string][]provider.TransferPage
}

func (f *fakeDataProvider) ListBalances(ctx context.Context, wallet, chain string) ([]provider.Balance, error) {
	return nil, nil
}

func (f *fakeDataProvider) ListTransfers(ctx context.Context, wallet, chain, fungibleID, cursor string, pageSize int) (provider.TransferPage, error) {
	pages := f.pages[fungibleID]
	idx := 0
	if cursor != "" {
		var err error
		idx, err = parseCursor(cursor)
		if err != nil {
			return provider.TransferPage{}, err
		}
	}
	if idx >= len(pages) {
		return provider.TransferPage{}, nil
	}
	return pages[idx], nil
}

func (f *fakeDataProvider) ListRecentSends(ctx context.Context, wallet, chain string, sinceHours int) ([]provider.Send, error) {
	return nil, nil
}

func parseCursor(s string) (int, error) {
	switch s {
	case "1":
		return 1, nil
	default:
		return 0, nil
	}
}

type fakeTransferDAO struct {
	inserted [][]model.Transfer
	replaced []model.Transfer
}

func (f *fakeTransferDAO) BatchInsert(ctx context.Context, transfers []model.Transfer) error {
	f.inserted = append(f.inserted, transfers)
	return nil
}
func (f *fakeTransferDAO) ListByWallet(ctx context.Context, wallet string) ([]model.Transfer, error) {
	return nil, nil
}
func (f *fakeTransferDAO) ListByWalletAndFungible(ctx context.Context, wallet, fungibleID string) ([]model.Transfer, error) {
	return nil, nil
}
func (f *fakeTransferDAO) UpdateInheritedCost(ctx context.Context, transfers []model.Transfer) error {
	return nil
}
func (f *fakeTransferDAO) ReplaceHistory(ctx context.Context, wallet, fungibleID string, transfers []model.Transfer) error {
	f.replaced = transfers
	return nil
}

func TestIngestWallet_WalksSinglePageAndInserts(t *testing.T) {
	dp := &fakeDataProvider{pages: map[string][]provider.TransferPage{
		"fungible-1": {
			{Transfers: []provider.RawTransfer{
				{Direction: "in", Quantity: 10, QuoteUSD: quote(100), TransactionHash: "0x1", Timestamp: time.Now()},
			}},
		},
	}}
	transferDAO := &fakeTransferDAO{}
	ing := New(dp, transferDAO, fakeResolver{}, 50, zap.NewNop())

	res := ing.IngestWallet(context.Background(), "0xwallet", "ethereum", []string{"fungible-1"})

	require.False(t, res.Failed())
	require.Len(t, transferDAO.inserted, 1)
	require.Len(t, transferDAO.inserted[0], 1)
	require.Equal(t, "0xwallet", transferDAO.inserted[0][0].Wallet)
}

func TestReplaceHistory_ReplacesOneTokensRows(t *testing.T) {
	dp := &fakeDataProvider{pages: map[string][]provider.TransferPage{
		"fungible-1": {
			{Transfers: []provider.RawTransfer{
				{Direction: "in", Quantity: 10, QuoteUSD: quote(100), TransactionHash: "0x1", Timestamp: time.Now()},
			}},
		},
	}}
	transferDAO := &fakeTransferDAO{}
	ing := New(dp, transferDAO, fakeResolver{}, 50, zap.NewNop())

	fetched, res := ing.ReplaceHistory(context.Background(), "0xwallet", "ethereum", "fungible-1")

	require.False(t, res.Failed())
	require.Len(t, fetched, 1)
	require.Len(t, transferDAO.replaced, 1)
	require.Equal(t, "0xwallet", transferDAO.replaced[0].Wallet)
}
