// Package decision implements the decision worker pool: N concurrent
// workers draining InQueue, admitting or rejecting each signal against the
// ranking snapshot and the position ledger, per spec.md §4.5.
package decision

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"signalgate/internal/ledger"
	"signalgate/internal/logging"
	"signalgate/internal/metrics"
	"signalgate/internal/queue"
	"signalgate/internal/ranking"
	"signalgate/internal/signal"
	"signalgate/internal/store"
)

var log = logging.For("decision")

// Rejection reasons, persisted as SignalEvent details.
const (
	ReasonNotInRanking           = "not_in_ranking"
	ReasonDuplicateOpen          = "duplicate_open"
	ReasonNoOpenPosition         = "no_open_position"
	ReasonStoreTransientExceeded = "store_transient_exceeded"
)

// Pool runs a fixed-size pool of decision workers.
type Pool struct {
	Size          int
	RetryCap      int
	Store         store.Store
	Ledger        *ledger.Ledger
	Ranking       *ranking.Publisher
	InQueue       *queue.Queue[*signal.Signal]
	ApprovedQueue *queue.Queue[*signal.Signal]
}

// Run blocks until done is closed, fanning work out across Size goroutines.
func (p *Pool) Run(ctx context.Context, done <-chan struct{}) {
	var wg sync.WaitGroup
	for i := 0; i < p.Size; i++ {
		wg.Add(1)
		workerID := fmt.Sprintf("decision-%d", i)
		go func() {
			defer wg.Done()
			p.runWorker(ctx, done, workerID)
		}()
	}
	wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, done <-chan struct{}, workerID string) {
	for {
		sig, err := p.InQueue.Pop(done)
		if err != nil {
			return // queue closed: shutdown in progress
		}
		p.processOne(ctx, workerID, sig)
	}
}

// processOne handles exactly one signal, never letting a failure escape
// the worker loop (spec.md §7 propagation rule): every error path marks
// the signal and continues.
func (p *Pool) processOne(ctx context.Context, workerID string, sig *signal.Signal) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic processing signal %s: %v", sig.SignalID, r)
			_ = p.Store.AppendEvent(ctx, sig.SignalID, signal.StatusRejected, workerID, "panic_recovered")
		}
	}()

	class := signal.Classify(sig.Side, sig.Action)
	snap := p.Ranking.Current()

	var err error
	switch class {
	case signal.ClassBuy:
		err = p.decideBuy(ctx, workerID, sig, snap)
	default:
		err = p.decideSell(ctx, workerID, sig)
	}
	if err == nil {
		return
	}

	if errors.Is(err, store.ErrTransient) {
		p.retryOrGiveUp(ctx, workerID, sig)
		return
	}
	log.Errorf("worker %s: signal %s: unexpected error: %v", workerID, sig.SignalID, err)
	p.reject(ctx, workerID, sig, "internal_error")
}

func (p *Pool) decideBuy(ctx context.Context, workerID string, sig *signal.Signal, snap *ranking.Snapshot) error {
	if !snap.Has(sig.Ticker) {
		p.reject(ctx, workerID, sig, ReasonNotInRanking)
		return nil
	}

	outcome, err := p.Ledger.TryOpen(ctx, sig.Ticker, sig.SignalID)
	if err != nil {
		return err
	}
	switch outcome {
	case ledger.OutcomeOpened:
		return p.approve(ctx, workerID, sig)
	default:
		p.reject(ctx, workerID, sig, ReasonDuplicateOpen)
		return nil
	}
}

func (p *Pool) decideSell(ctx context.Context, workerID string, sig *signal.Signal) error {
	outcome, err := p.Ledger.TryBeginClose(ctx, sig.Ticker, sig.SignalID)
	if err != nil {
		return err
	}
	switch outcome {
	case ledger.OutcomeClosing:
		return p.approve(ctx, workerID, sig)
	default:
		p.reject(ctx, workerID, sig, ReasonNoOpenPosition)
		return nil
	}
}

func (p *Pool) approve(ctx context.Context, workerID string, sig *signal.Signal) error {
	if err := p.Store.SetSignalStatus(ctx, sig.SignalID, signal.StatusApproved, workerID, "approved"); err != nil {
		return err
	}
	sig.Status = signal.StatusApproved
	metrics.DecisionsTotal.WithLabelValues("approved", "").Inc()
	if pushErr := p.ApprovedQueue.Push(sig, nil); pushErr != nil {
		// Push(nil-done) never blocks forever in practice because the
		// ApprovedQueue is sized generously; a persistent failure here
		// would mean the process is shutting down, in which case the
		// caller's done channel already stopped new work upstream.
		log.Errorf("worker %s: failed to enqueue approved signal %s: %v", workerID, sig.SignalID, pushErr)
	}
	return nil
}

func (p *Pool) reject(ctx context.Context, workerID string, sig *signal.Signal, reason string) {
	if err := p.Store.SetSignalStatus(ctx, sig.SignalID, signal.StatusRejected, workerID, reason); err != nil {
		log.Errorf("worker %s: failed to record rejection for %s: %v", workerID, sig.SignalID, err)
	}
	sig.Status = signal.StatusRejected
	metrics.DecisionsTotal.WithLabelValues("rejected", reason).Inc()
}

func (p *Pool) retryOrGiveUp(ctx context.Context, workerID string, sig *signal.Signal) {
	sig.RetryCount++
	if sig.RetryCount > p.RetryCap {
		p.reject(ctx, workerID, sig, ReasonStoreTransientExceeded)
		return
	}
	log.Warnf("worker %s: transient store error for %s, retry %d/%d", workerID, sig.SignalID, sig.RetryCount, p.RetryCap)
	if err := p.InQueue.Push(sig, nil); err != nil {
		log.Errorf("worker %s: failed to re-queue %s after transient error: %v", workerID, sig.SignalID, err)
	}
}
