// Package errs implements the error taxonomy from spec §7: every
// component classifies a failure into one of a small set of kinds so
// callers can decide retry/skip/abort without string matching.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindTransient Kind = iota // retryable: provider rate limit, timeout, connection reset
	KindNotFound              // wallet/token/transfer not present upstream
	KindInvalidData           // malformed or inconsistent upstream payload
	KindDataIntegrity         // local invariant violated (e.g. FIFO overflow)
	KindExternal              // downstream dependency unavailable (DB, redis, kafka)
	KindConfig                // misconfiguration, fails fast
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindNotFound:
		return "not_found"
	case KindInvalidData:
		return "invalid_data"
	case KindDataIntegrity:
		return "data_integrity"
	case KindExternal:
		return "external"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind so a caller can branch on
// errors.As without inspecting message text.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// UnitResult records the outcome of one unit of work (one wallet, one
// token, one migration candidate) inside a batch job, per spec §7's
// propagation rule: batch stages never abort on a single failure, they
// collect and log a summary.
type UnitResult struct {
	CorrelationID string
	Subject       string // e.g. wallet address, contract address
	Err           error
}

func (u UnitResult) Failed() bool { return u.Err != nil }

// Summarize turns a batch stage's per-unit failure count into the
// stage's own return value: nil when every unit succeeded, a
// KindTransient error otherwise so the CLI can exit 1 (spec §6) while
// the scheduler's per-job loop still just logs and retries next tick.
func Summarize(op string, total, failed int) error {
	if failed == 0 {
		return nil
	}
	return New(op, KindTransient, fmt.Errorf("%d/%d units failed", failed, total))
}

// Tally counts failures by Kind for a batch-completion log line.
func Tally(results []UnitResult) (ok int, byKind map[Kind]int) {
	byKind = make(map[Kind]int)
	for _, r := range results {
		if r.Err == nil {
			ok++
			continue
		}
		var e *Error
		if errors.As(r.Err, &e) {
			byKind[e.Kind]++
		} else {
			byKind[KindExternal]++
		}
	}
	return ok, byKind
}

// ErrNegativeInventory is reported in the warnings slice returned by
// fifo.Engine.Run (never as a failure of the run) when a sell consumes
// more quantity than the FIFO lot queue holds; spec §9 Open Question (c)
// resolves this as an implicit zero-cost airdrop lot.
var ErrNegativeInventory = errors.New("sell exceeds tracked lot inventory, treated as airdrop-funded")
