package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"smartwallet/internal/core/model"
)

func TestStaticSource_FiltersByPeriod(t *testing.T) {
	candidates := []Candidate{
		{Address: "0xa", Chain: "ethereum", Period: model.DiscoveryPeriod14d},
		{Address: "0xb", Chain: "ethereum", Period: model.DiscoveryPeriod30d},
		{Address: "0xc", Chain: "solana", Period: model.DiscoveryPeriod14d},
	}
	source := NewStaticSource(candidates)

	out, err := source.Candidates(context.Background(), model.DiscoveryPeriod14d)

	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "0xa", out[0].Address)
	require.Equal(t, "0xc", out[1].Address)
}

func TestStaticSource_EmptyWhenNoMatch(t *testing.T) {
	source := NewStaticSource([]Candidate{{Address: "0xa", Period: model.DiscoveryPeriod30d}})

	out, err := source.Candidates(context.Background(), model.DiscoveryPeriod14d)

	require.NoError(t, err)
	require.Empty(t, out)
}

func TestStaticSource_NilCandidates(t *testing.T) {
	source := NewStaticSource(nil)

	out, err := source.Candidates(context.Background(), model.DiscoveryPeriod14d)

	require.NoError(t, err)
	require.Empty(t, out)
}
