// Package seed implements the seed-wallet discovery source named in
// SPEC_FULL.md §6 ("seed.Source — candidate wallet addresses for the
// discovery CLI command"). Grounded on the teacher's
// internal/worker/job/cache_load.go, which reads a static candidate list
// out of config/DB at startup rather than crawling chain explorers.
package seed

import (
	"context"

	"smartwallet/internal/core/model"
)

// Candidate is one seed-discovered address awaiting a Wallet row.
type Candidate struct {
	Address      string
	Chain        string
	Period       model.DiscoveryPeriod
	PeriodDetail string
}

// Source supplies candidate wallet addresses for the discovery stage.
// A concrete Source may read a static config list, a CSV export, or a
// chain-explorer "top holders" query; the discovery job only depends on
// this small capability.
type Source interface {
	Candidates(ctx context.Context, period model.DiscoveryPeriod) ([]Candidate, error)
}

// StaticSource returns a fixed, pre-configured candidate list — the
// manual/backfill seeding path (spec's `Wallet.period_detail` note).
type StaticSource struct {
	candidates []Candidate
}

func NewStaticSource(candidates []Candidate) *StaticSource {
	return &StaticSource{candidates: candidates}
}

func (s *StaticSource) Candidates(ctx context.Context, period model.DiscoveryPeriod) ([]Candidate, error) {
	var out []Candidate
	for _, c := range s.candidates {
		if c.Period == period {
			out = append(out, c)
		}
	}
	return out, nil
}
