// Package ranking defines the RankingSource contract and the published
// Snapshot the rest of the pipeline reads lock-free, per spec.md §3/§4.7.
// The concrete HTTP-polling implementation lives in http_source.go, in the
// paginated JSON-polling style of SynapseStrike's provider package
// (AI500/AI100/Movers pollers).
package ranking

import (
	"context"
	"sync/atomic"
	"time"
)

// Snapshot is an immutable ranking result. A new Snapshot entirely
// replaces the previous one; fields are never mutated after construction.
type Snapshot struct {
	Tickers    map[string]struct{}
	FetchedAt  time.Time
	Generation int64
}

// Has reports whether ticker is present in the snapshot.
func (s *Snapshot) Has(ticker string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Tickers[ticker]
	return ok
}

// Source is the pluggable external ranking provider. Out of scope per
// spec.md §1 ("the HTML scraper of the ranking source"); this package only
// defines the contract plus one concrete HTTP/JSON implementation adequate
// for the pack's grounding material and for tests.
type Source interface {
	// Fetch returns the complete current set of admissible tickers, up to
	// topN entries. An error means the fetch failed entirely (network,
	// parse, pagination truncation) — the caller must not treat a partial
	// result as authoritative.
	Fetch(ctx context.Context, topN int) (map[string]struct{}, error)
}

// Publisher holds the single published Snapshot reference, swapped
// atomically so that decision workers can read it lock-free (spec.md §5,
// "RankingSnapshot published via atomic reference swap").
type Publisher struct {
	ref atomic.Pointer[Snapshot]
}

// NewPublisher creates a Publisher with an empty initial snapshot at
// generation 0.
func NewPublisher() *Publisher {
	p := &Publisher{}
	p.ref.Store(&Snapshot{Tickers: map[string]struct{}{}, Generation: 0})
	return p
}

// Current returns the currently published Snapshot. Never nil.
func (p *Publisher) Current() *Snapshot {
	return p.ref.Load()
}

// Publish atomically replaces the published snapshot with one containing
// tickers, bumping the generation counter. Returns the entered set
// (new \ previous) for the caller to hand to the reprocessor.
func (p *Publisher) Publish(tickers map[string]struct{}, fetchedAt time.Time) (entered map[string]struct{}) {
	prev := p.Current()
	entered = diff(tickers, prev.Tickers)
	next := &Snapshot{
		Tickers:    tickers,
		FetchedAt:  fetchedAt,
		Generation: prev.Generation + 1,
	}
	p.ref.Store(next)
	return entered
}

// diff returns the elements of a not present in b (a \ b).
func diff(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}
