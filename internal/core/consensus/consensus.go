// Package consensus implements the Consensus Detector (C9): groups
// smart wallets' recent buys by token, and when enough whales
// independently bought into the same token within the window, emits a
// Consensus Signal (spec §4.9). Workflow grounded on
// original_source/smart_wallet_analysis/consensus_live/logic.py's
// detect_live_consensus: group by token -> filter by qualifying
// investment at each wallet's own threshold tier -> require
// whale_count >= min -> discard stablecoins -> fetch market data ->
// discard out-of-range market caps -> build a rich whale_details
// snapshot.
package consensus

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/errs"
	"smartwallet/internal/core/model"
	"smartwallet/internal/core/monitor"
	"smartwallet/internal/core/notify"
	"smartwallet/internal/core/provider"
)

// Buy is one qualifying smart-wallet purchase inside the detection
// window, the unit the detector groups by token.
type Buy struct {
	Wallet          string
	ContractAddress string
	Symbol          string
	Chain           string
	InvestmentUSD   float64
	PricePerToken   float64
	Timestamp       time.Time
	ThresholdTier   int
	QualityScore    float64
	ThresholdStatus model.ThresholdStatus
	OptimalROI      float64
	OptimalWinRate  float64
}

type Detector struct {
	cfg       config.ConsensusConfig
	signals   dao.ConsensusSignalDAO
	market    provider.MarketDataProvider
	sink      *notify.ConsensusSink
	logger    *zap.Logger
}

func New(cfg config.ConsensusConfig, signals dao.ConsensusSignalDAO, market provider.MarketDataProvider, sink *notify.ConsensusSink, logger *zap.Logger) *Detector {
	return &Detector{cfg: cfg, signals: signals, market: market, sink: sink, logger: logger}
}

// isExceptional matches the original's _is_exceptional_status, used to
// surface the strongest-tier wallets first in a signal's whale_details
// snapshot (spec §4.9 step 6).
func isExceptional(status model.ThresholdStatus) bool {
	return status == model.ThresholdExceptional || status == model.ThresholdExcellent
}

// isStablecoin implements spec §4.9's "discard ... token ∈ stablecoin
// set" gate.
func (d *Detector) isStablecoin(contract string) bool {
	for _, s := range d.cfg.Stablecoins {
		if s == contract {
			return true
		}
	}
	return false
}

// Run groups the supplied window of qualifying buys by token and
// detects consensus, persisting and publishing any new signal not
// already recorded for this (contract, period_start) key.
func (d *Detector) Run(ctx context.Context, buys []Buy) ([]errs.UnitResult, error) {
	groups := groupByContract(buys)

	var results []errs.UnitResult
	for contract, group := range groups {
		res := d.detectOne(ctx, contract, group)
		results = append(results, res)
	}
	return results, nil
}

func groupByContract(buys []Buy) map[string][]Buy {
	out := make(map[string][]Buy)
	for _, b := range buys {
		out[b.ContractAddress] = append(out[b.ContractAddress], b)
	}
	return out
}

func (d *Detector) detectOne(ctx context.Context, contract string, group []Buy) errs.UnitResult {
	if len(group) == 0 {
		return errs.UnitResult{Subject: contract}
	}

	periodStart, periodEnd := group[0].Timestamp, group[0].Timestamp
	byWallet := make(map[string][]Buy)
	for _, b := range group {
		byWallet[b.Wallet] = append(byWallet[b.Wallet], b)
		if b.Timestamp.Before(periodStart) {
			periodStart = b.Timestamp
		}
		if b.Timestamp.After(periodEnd) {
			periodEnd = b.Timestamp
		}
	}

	existing, err := d.signals.GetActive(ctx, contract, periodStart)
	if err != nil {
		return errs.UnitResult{Subject: contract, Err: errs.New("consensus.get_existing", errs.KindExternal, err)}
	}
	if existing != nil {
		return errs.UnitResult{Subject: contract}
	}

	var qualifying []string
	totalInvestment := 0.0
	for wallet, txs := range byWallet {
		sum := 0.0
		for _, t := range txs {
			sum += t.InvestmentUSD
		}
		// Each wallet qualifies for this token only if it invested at or
		// above its own optimal threshold tier (spec §4.9 step 2).
		// ThresholdTier already carries the tier's USD floor (one of
		// TierGrid's {3000..12000} values), not a grid index.
		tierFloor := float64(txs[0].ThresholdTier)
		if sum < tierFloor {
			continue
		}
		qualifying = append(qualifying, wallet)
		totalInvestment += sum
	}

	if len(qualifying) < d.cfg.MinWhalesConsensus {
		return errs.UnitResult{Subject: contract}
	}

	if d.isStablecoin(contract) {
		return errs.UnitResult{Subject: contract}
	}

	marketCap, liquidity, err := d.market.MarketData(ctx, group[0].Chain, contract)
	if err != nil {
		return errs.UnitResult{Subject: contract, Err: errs.New("consensus.market_data", errs.KindExternal, err)}
	}
	if marketCap < d.cfg.McapMinUSD || marketCap > d.cfg.McapMaxUSD {
		return errs.UnitResult{Subject: contract}
	}

	whaleDetails := buildWhaleDetails(qualifying, byWallet)
	detailsJSON, err := sonic.Marshal(whaleDetails)
	if err != nil {
		return errs.UnitResult{Subject: contract, Err: errs.New("consensus.marshal_details", errs.KindInvalidData, err)}
	}

	signal := model.ConsensusSignal{
		Symbol:          group[0].Symbol,
		ContractAddress: contract,
		Chain:           group[0].Chain,
		DetectionDate:   time.Now(),
		WhaleCount:      len(qualifying),
		TotalInvestment: totalInvestment,
		FirstBuy:        periodStart,
		LastBuy:         periodEnd,
		IsActive:        marketCap > 0,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		WalletAddresses: pq.StringArray(qualifying),
		WhaleDetails:    datatypes.JSON(detailsJSON),
	}

	if err := d.signals.Upsert(ctx, &signal); err != nil {
		return errs.UnitResult{Subject: contract, Err: errs.New("consensus.persist", errs.KindExternal, err)}
	}
	monitor.ConsensusSignalsEmitted.WithLabelValues(signal.Chain).Inc()

	if d.sink != nil {
		if err := d.sink.Publish(ctx, signal); err != nil {
			d.logger.Warn("consensus signal persisted but publish failed", zap.String("contract", contract), zap.Error(err))
		}
	}

	_ = liquidity // fetched with the market cap but neither stored on the signal nor gated on; IsActive derives from market cap only
	return errs.UnitResult{Subject: contract}
}

// buildWhaleDetails mirrors _build_whale_details: one entry per
// qualifying wallet, sorted exceptional-first then by investment
// descending, the same tie-break order the original used so the top of
// the snapshot is always the most convincing evidence.
func buildWhaleDetails(qualifying []string, byWallet map[string][]Buy) []model.WhaleDetail {
	details := make([]model.WhaleDetail, 0, len(qualifying))
	for _, wallet := range qualifying {
		txs := byWallet[wallet]
		sum := 0.0
		first, last := txs[0].Timestamp, txs[0].Timestamp
		for _, t := range txs {
			sum += t.InvestmentUSD
			if t.Timestamp.Before(first) {
				first = t.Timestamp
			}
			if t.Timestamp.After(last) {
				last = t.Timestamp
			}
		}
		details = append(details, model.WhaleDetail{
			Address:              wallet,
			ThresholdStatus:      string(txs[0].ThresholdStatus),
			QualityScore:         txs[0].QualityScore,
			OptimalThresholdTier: txs[0].ThresholdTier,
			OptimalROI:           txs[0].OptimalROI,
			OptimalWinRate:       txs[0].OptimalWinRate,
			InvestmentUSD:        sum,
			TransactionCount:     len(txs),
			FirstBuyDate:         first,
			LastBuyDate:          last,
		})
	}

	sort.Slice(details, func(i, k int) bool {
		ei, ek := isExceptional(model.ThresholdStatus(details[i].ThresholdStatus)), isExceptional(model.ThresholdStatus(details[k].ThresholdStatus))
		if ei != ek {
			return ei
		}
		return details[i].InvestmentUSD > details[k].InvestmentUSD
	})
	return details
}
