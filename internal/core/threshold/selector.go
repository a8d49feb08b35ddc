// Package threshold implements the Threshold Selector (C6): chooses each
// wallet's optimal investment threshold and quality score from its Tier
// Performance rows, and decides smart-wallet election (spec §4.6).
package threshold

import (
	"math"
	"sort"

	"smartwallet/internal/core/model"
)

const (
	minReliableTrades  = 5
	minReliableWinRate = 0.20
	roiCap             = 500.0 // percent, spec §4.6 step 3

	// jLogScaleConstant keeps the trade-count term a minor tie-breaker
	// on J's 0-1 scale. Distinct from scoring.logScaleConstant, which
	// operates on the Scorer's 0-100 score scale — reusing that value
	// here would let the log term dominate roi_norm/win_rate entirely.
	jLogScaleConstant = 0.05

	// sigmoidSlope is `a` in q = sigmoid(a*(meanJ-b)); spec §9 Open
	// Question (b) leaves normalization constants unspecified, so this
	// is a design choice (see DESIGN.md) rather than a spec'd value.
	sigmoidSlope = 6.0

	// plateauStabilityPct is the "within 10% of max(J)" band from
	// spec §4.6 step 4.
	plateauStabilityPct = 0.10
)

// tierJ pairs a tier with its J score for plateau walking.
type tierJ struct {
	tier    int
	j       float64
	perf    model.TierPerformance
}

// Result is the Threshold Selector's per-wallet decision.
type Result struct {
	IsSmartWallet        bool
	Status               model.ThresholdStatus
	OptimalThresholdTier int
	QualityScore         float64
	JScoreMax            float64
	JScoreAvg            float64
	ReliableTiersCount   int
	OptimalTier          model.TierPerformance
}

// Select runs the full algorithm from spec §4.6 over one wallet's tier
// performance rows.
func Select(tiers []model.TierPerformance) Result {
	reliable := filterReliable(tiers)
	if len(reliable) == 0 {
		return Result{Status: model.ThresholdNoReliableTiers}
	}

	js := computeJ(reliable)

	jValues := make([]float64, len(js))
	maxJ := math.Inf(-1)
	for i, tj := range js {
		jValues[i] = tj.j
		if tj.j > maxJ {
			maxJ = tj.j
		}
	}

	p60 := percentileFromTop(jValues, 60)
	stabilityFloor := maxJ * (1 - plateauStabilityPct)
	jThreshold := math.Max(p60, stabilityFloor)

	plateau := walkPlateau(js, jThreshold)
	if len(plateau) == 0 {
		return Result{Status: model.ThresholdNoReliableTiers, ReliableTiersCount: len(reliable)}
	}

	meanJ := 0.0
	for _, tj := range plateau {
		meanJ += tj.j
	}
	meanJ /= float64(len(plateau))

	optimal := plateau[len(plateau)-1] // smallest tier in the contiguous run
	quality := qualityScore(meanJ)
	status := statusForQuality(quality)

	return Result{
		IsSmartWallet:        status != model.ThresholdNeutral,
		Status:               status,
		OptimalThresholdTier: optimal.tier,
		QualityScore:         quality,
		JScoreMax:            maxJ,
		JScoreAvg:            meanJ,
		ReliableTiersCount:   len(reliable),
		OptimalTier:          optimal.perf,
	}
}

// filterReliable implements spec §4.6 step 1.
func filterReliable(tiers []model.TierPerformance) []model.TierPerformance {
	var out []model.TierPerformance
	for _, t := range tiers {
		if t.NTrades >= minReliableTrades && t.WinRate >= minReliableWinRate && t.ROIPercentage > 0 {
			out = append(out, t)
		}
	}
	return out
}

// computeJ implements spec §4.6 step 3.
func computeJ(tiers []model.TierPerformance) []tierJ {
	out := make([]tierJ, len(tiers))
	for i, t := range tiers {
		roiNorm := math.Min(1, t.ROIPercentage/roiCap)
		j := 0.6*roiNorm + 0.4*t.WinRate + 0.1*math.Log(1+float64(t.NTrades))*jLogScaleConstant
		out[i] = tierJ{tier: t.TierUSD, j: j, perf: t}
	}
	return out
}

// walkPlateau implements spec §4.6 step 4: starting from the largest
// tier clearing jThreshold, walk down the grid while the condition
// holds, stopping at the first break.
func walkPlateau(js []tierJ, jThreshold float64) []tierJ {
	sorted := make([]tierJ, len(js))
	copy(sorted, js)
	sort.Slice(sorted, func(i, k int) bool { return sorted[i].tier > sorted[k].tier })

	startIdx := -1
	for i, tj := range sorted {
		if tj.j >= jThreshold {
			startIdx = i
			break
		}
	}
	if startIdx == -1 {
		return nil
	}

	plateau := []tierJ{sorted[startIdx]}
	for i := startIdx + 1; i < len(sorted); i++ {
		if sorted[i].j >= jThreshold {
			plateau = append(plateau, sorted[i])
		} else {
			break
		}
	}
	return plateau
}

// percentileFromTop returns the value below which the top p% of a
// sorted-ascending distribution lies — i.e. "P60" means the threshold
// that admits the top 60% of values, equivalent to the standard 40th
// percentile computed bottom-up with linear interpolation. Matches the
// worked example in spec §8 scenario S3.
func percentileFromTop(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	frac := (100 - p) / 100
	idx := frac * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	weight := idx - float64(lo)
	return sorted[lo] + weight*(sorted[hi]-sorted[lo])
}

// jFloor is J evaluated at the reliable-tier qualification floor
// (win_rate at its minimum, roi just above zero, n_trades at its
// minimum) — the calibration point for the quality sigmoid (spec §4.6
// step 5: "q ≈ 0.5 at the qualification floor").
var jFloor = 0.6*0 + 0.4*minReliableWinRate + 0.1*math.Log(1+float64(minReliableTrades))*jLogScaleConstant

func qualityScore(meanJ float64) float64 {
	q := 1 / (1 + math.Exp(-sigmoidSlope*(meanJ-jFloor)))
	return math.Max(0, math.Min(1, q))
}

func statusForQuality(q float64) model.ThresholdStatus {
	switch {
	case q < 0.1:
		return model.ThresholdNeutral
	case q < 0.3:
		return model.ThresholdPoor
	case q < 0.5:
		return model.ThresholdAverage
	case q < 0.7:
		return model.ThresholdGood
	case q < 0.9:
		return model.ThresholdExcellent
	default:
		return model.ThresholdExceptional
	}
}
