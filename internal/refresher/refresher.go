// Package refresher drives the ranking refresh state machine: Idle → Fetch
// → Diff → Apply → Reprocess, ticked by the active Strategy's
// refresh_interval_sec, per spec.md §4.7.
package refresher

import (
	"context"
	"sync/atomic"
	"time"

	"signalgate/internal/logging"
	"signalgate/internal/metrics"
	"signalgate/internal/ranking"
	"signalgate/internal/reprocess"
	"signalgate/internal/store"
)

var log = logging.For("refresher")

// Refresher runs the ranking-refresh ticking loop.
type Refresher struct {
	Store      store.Store
	Source     ranking.Source
	Publisher  *ranking.Publisher
	Reprocess  *reprocess.Engine

	ReprocessSoftDeadline time.Duration

	paused atomic.Bool
}

// New builds a Refresher.
func New(st store.Store, src ranking.Source, pub *ranking.Publisher, eng *reprocess.Engine) *Refresher {
	return &Refresher{Store: st, Source: src, Publisher: pub, Reprocess: eng, ReprocessSoftDeadline: 30 * time.Second}
}

// Pause disables Fetch; the last published snapshot remains authoritative.
func (r *Refresher) Pause() { r.paused.Store(true) }

// Resume re-enables Fetch.
func (r *Refresher) Resume() { r.paused.Store(false) }

// Paused reports whether the refresher is currently paused.
func (r *Refresher) Paused() bool { return r.paused.Load() }

// Run ticks forever at the active strategy's refresh interval until done is
// closed. The active strategy is re-read at the start of every tick (spec.md
// §5: "fetched at the start of each refresher tick; changes mid-cycle do not
// affect the in-flight cycle").
func (r *Refresher) Run(ctx context.Context, done <-chan struct{}) {
	interval := r.nextInterval(ctx)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			r.tick(ctx)
			timer.Reset(r.nextInterval(ctx))
		}
	}
}

func (r *Refresher) nextInterval(ctx context.Context) time.Duration {
	strategy, err := r.Store.ActiveStrategy(ctx)
	if err != nil || strategy.RefreshIntervalSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(strategy.RefreshIntervalSec) * time.Second
}

// ForceRefresh runs one tick immediately, bypassing the interval timer. Used
// by the admin "force refresh" action.
func (r *Refresher) ForceRefresh(ctx context.Context) {
	r.tick(ctx)
}

func (r *Refresher) tick(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("panic during refresh tick: %v", rec)
		}
	}()

	if r.paused.Load() {
		log.Debugf("refresher paused, skipping tick")
		return
	}

	strategy, err := r.Store.ActiveStrategy(ctx)
	if err != nil {
		log.Errorf("load active strategy: %v", err)
		return
	}

	tickers, err := r.Source.Fetch(ctx, strategy.TopN)
	if err != nil {
		log.Warnf("ranking fetch failed, keeping last known good snapshot: %v", err)
		return
	}

	entered := r.Publisher.Publish(tickers, time.Now())
	metrics.RankingGeneration.Set(float64(r.Publisher.Current().Generation))

	if !strategy.ReprocessEnabled || len(entered) == 0 {
		return
	}

	log.Infof("%d ticker(s) newly entered ranking, reprocessing", len(entered))
	report := r.Reprocess.Run(ctx, entered, strategy, r.ReprocessSoftDeadline)
	if report.TimedOut {
		log.Warnf("reprocess cycle hit soft deadline after %s", report.Duration)
	}
}
