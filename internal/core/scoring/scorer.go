// Package scoring implements the Scorer (C4): a composite score per
// wallet computed over its Token Analytics rows, and the qualification
// gate that admits a wallet into the scoring pipeline's Tier Analyzer
// stage (spec §4.4).
package scoring

import (
	"math"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/model"
)

// logScaleConstant is the `k` in `0.1*log(1+n_trades)*k` (spec §4.4).
// Chosen so the log term stays a minor tie-breaker relative to the ROI
// and win-rate terms across the qualification range (n_trades from 3 to
// a few hundred) rather than dominating the composite score.
const logScaleConstant = 10.0

// Result is the Scorer's per-wallet output (spec §3 "Qualified Wallet").
type Result struct {
	Score          float64
	WeightedROI    float64
	WinRate        float64
	TradeCount     int
	Classification model.Classification
	Qualifies      bool
}

// Score computes the composite score for one wallet from its recomputed
// Token Analytics rows. Airdrop-only rows (TotalInvestedUSD == 0) are
// excluded from weighted_roi per spec §4.4 ("investments only; airdrops
// excluded"); the same investment-trade subset is used for win_rate and
// trade_count for consistency.
func Score(cfg config.ScoringConfig, analytics []model.TokenAnalytics) Result {
	var investedSum, roiWeightedSum float64
	var winners, tradeCount int

	for _, a := range analytics {
		if a.TotalInvestedUSD <= 0 {
			continue
		}
		tradeCount++
		investedSum += a.TotalInvestedUSD
		roiWeightedSum += a.ROIPercentage * a.TotalInvestedUSD
		if a.ROIPercentage >= 80 {
			winners++
		}
	}

	var weightedROI, winRate float64
	if investedSum > 0 {
		weightedROI = roiWeightedSum / investedSum
	}
	if tradeCount > 0 {
		winRate = float64(winners) / float64(tradeCount)
	}

	normalizedROI := clamp(weightedROI, 0, 100)
	score := 0.6*normalizedROI + 0.3*winRate*100 + 0.1*math.Log(1+float64(tradeCount))*logScaleConstant

	classification := classify(score)

	floor := cfg.QualifyScoreFloor
	if floor == 0 {
		floor = 20
	}
	minTrades := cfg.MinTradesQualified
	if minTrades == 0 {
		minTrades = 3
	}
	qualifies := score >= floor && weightedROI >= 50 && tradeCount >= minTrades

	return Result{
		Score:          score,
		WeightedROI:    weightedROI,
		WinRate:        winRate,
		TradeCount:     tradeCount,
		Classification: classification,
		Qualifies:      qualifies,
	}
}

func classify(score float64) model.Classification {
	switch {
	case score >= 80:
		return model.ClassificationElite
	case score >= 60:
		return model.ClassificationExcellent
	case score >= 40:
		return model.ClassificationBon
	case score >= 20:
		return model.ClassificationMoyen
	default:
		return model.ClassificationFaible
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
