// Package tier implements the Tier Analyzer (C5): per-wallet performance
// across the fixed investment-threshold grid (spec §4.5).
package tier

import "smartwallet/internal/core/model"

// Analyze computes one TierPerformance row per entry in model.TierGrid.
// Tokens are included at tier t only when their total_invested >= t
// (spec §4.5); empty tiers are written with zeros and are not eligible
// for optimality (the Threshold Selector filters on n_trades below).
func Analyze(wallet string, analytics []model.TokenAnalytics) []model.TierPerformance {
	out := make([]model.TierPerformance, 0, len(model.TierGrid))

	for _, t := range model.TierGrid {
		var invested, roiWeightedSum float64
		var nTrades, nWinners, nLosers, nNeutral int

		for _, a := range analytics {
			if a.TotalInvestedUSD < float64(t) {
				continue
			}
			nTrades++
			invested += a.TotalInvestedUSD
			roiWeightedSum += a.ROIPercentage * a.TotalInvestedUSD

			switch {
			case a.ROIPercentage >= 80:
				nWinners++
			case a.ROIPercentage < 0:
				nLosers++
			default:
				nNeutral++
			}
		}

		var roi, winRate float64
		if invested > 0 {
			roi = roiWeightedSum / invested
		}
		if nTrades > 0 {
			winRate = float64(nWinners) / float64(nTrades)
		}

		out = append(out, model.TierPerformance{
			Wallet:              wallet,
			TierUSD:             t,
			ROIPercentage:       roi,
			WinRate:             winRate,
			NTrades:             nTrades,
			NWinners:            nWinners,
			NLosers:             nLosers,
			NNeutral:            nNeutral,
			TotalInvested:       invested,
			TotalInvestedAtTier: invested,
		})
	}

	return out
}
