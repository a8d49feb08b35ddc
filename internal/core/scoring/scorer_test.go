package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/model"
)

func TestScore_QualifiesStrongWallet(t *testing.T) {
	cfg := config.ScoringConfig{QualifyScoreFloor: 20, MinTradesQualified: 3}
	analytics := []model.TokenAnalytics{
		{TotalInvestedUSD: 1000, ROIPercentage: 150},
		{TotalInvestedUSD: 2000, ROIPercentage: 90},
		{TotalInvestedUSD: 500, ROIPercentage: -10},
	}

	result := Score(cfg, analytics)

	require.True(t, result.Qualifies)
	require.Equal(t, 3, result.TradeCount)
	require.InDelta(t, 2/3.0, result.WinRate, 0.001)
	require.Equal(t, model.ClassificationExcellent, result.Classification)
}

func TestScore_ExcludesAirdropOnlyRows(t *testing.T) {
	cfg := config.ScoringConfig{QualifyScoreFloor: 20, MinTradesQualified: 3}
	analytics := []model.TokenAnalytics{
		{TotalInvestedUSD: 0, ROIPercentage: 0, Status: model.StatusAirdropGagnant},
		{TotalInvestedUSD: 1000, ROIPercentage: 60},
		{TotalInvestedUSD: 1000, ROIPercentage: 60},
	}

	result := Score(cfg, analytics)

	require.Equal(t, 2, result.TradeCount)
}

func TestScore_FailsQualificationOnLowTradeCount(t *testing.T) {
	cfg := config.ScoringConfig{QualifyScoreFloor: 20, MinTradesQualified: 3}
	analytics := []model.TokenAnalytics{
		{TotalInvestedUSD: 1000, ROIPercentage: 200},
		{TotalInvestedUSD: 1000, ROIPercentage: 200},
	}

	result := Score(cfg, analytics)

	require.False(t, result.Qualifies)
}
