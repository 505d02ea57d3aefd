// Package reprocess implements the reprocessing engine: when tickers newly
// enter the ranking, previously REJECTED (not_in_ranking) BUY signals are
// re-examined and admitted if still intent-consistent, per spec.md §4.8.
package reprocess

import (
	"context"
	"errors"
	"sync"
	"time"

	"signalgate/internal/ledger"
	"signalgate/internal/logging"
	"signalgate/internal/metrics"
	"signalgate/internal/queue"
	"signalgate/internal/signal"
	"signalgate/internal/store"
)

var log = logging.For("reprocess")

// Outcome is the per-candidate disposition, the status taxonomy spec.md
// §4.8 names exactly.
type Outcome string

const (
	OutcomeSuccess               Outcome = "SUCCESS"
	OutcomeFailedValidation      Outcome = "FAILED_VALIDATION"
	OutcomeFailedReconstruction  Outcome = "FAILED_RECONSTRUCTION"
	OutcomeFailedDatabase        Outcome = "FAILED_DATABASE"
	OutcomeFailedQueue           Outcome = "FAILED_QUEUE"
	OutcomeSkippedNonBuy         Outcome = "SKIPPED_NON_BUY"
	OutcomeSkippedPositionExists Outcome = "SKIPPED_POSITION_EXISTS"
	OutcomeSkippedSellChronology Outcome = "SKIPPED_SELL_CHRONOLOGY"
	OutcomeSkippedStatusChanged  Outcome = "SKIPPED_STATUS_CHANGED"
)

// CandidateResult is the disposition of one reprocessed signal.
type CandidateResult struct {
	SignalID string
	Ticker   string
	Outcome  Outcome
}

// CycleReport summarizes one reprocessing cycle across every entered ticker.
type CycleReport struct {
	Results       []CandidateResult
	TimedOut      bool
	Duration      time.Duration
}

// Health is the aggregated, rolling-window status of the reprocessing
// engine, per spec.md §4.8's HEALTHY/WARNING/CRITICAL/STALE mapping.
type Health struct {
	Status      string
	SuccessRate float64
	LastCycleAt time.Time
}

// Engine drives per-ticker reprocessing of previously rejected BUY signals.
type Engine struct {
	Store         store.Store
	Ledger        *ledger.Ledger
	ApprovedQueue *queue.Queue[*signal.Signal]

	mu              sync.Mutex
	processedTotal  int64
	successTotal    int64
	lastCycleAt     time.Time
	lastCycleDur    time.Duration
}

// New builds a reprocessing Engine.
func New(st store.Store, ld *ledger.Ledger, approved *queue.Queue[*signal.Signal]) *Engine {
	return &Engine{Store: st, Ledger: ld, ApprovedQueue: approved}
}

// Run reprocesses every ticker in entered against strategy's parameters.
// softDeadline bounds total wall-clock time: once exceeded, no new ticker's
// work starts, but any candidate transaction already in flight completes
// or rolls back cleanly.
func (e *Engine) Run(ctx context.Context, entered map[string]struct{}, strategy *store.Strategy, softDeadline time.Duration) CycleReport {
	start := time.Now()
	deadline := start.Add(softDeadline)
	report := CycleReport{}

	for ticker := range entered {
		if softDeadline > 0 && time.Now().After(deadline) {
			report.TimedOut = true
			log.Warnf("reprocess cycle deadline exceeded, skipping remaining tickers starting at %s", ticker)
			break
		}
		results := e.processTicker(ctx, ticker, strategy)
		report.Results = append(report.Results, results...)
	}

	report.Duration = time.Since(start)
	e.recordCycle(report)
	metrics.ReprocessCycleDurationSeconds.Observe(report.Duration.Seconds())
	return report
}

// processTicker implements the per-ticker procedure of spec.md §4.8,
// stopping as soon as one BUY is admitted (at most one open per ticker).
func (e *Engine) processTicker(ctx context.Context, ticker string, strategy *store.Strategy) []CandidateResult {
	candidates, err := e.Store.GetRejectedBuyCandidates(ctx, ticker, strategy.ReprocessWindowSeconds, strategy.MaxSignalsPerTicker)
	if err != nil {
		log.Errorf("get rejected buy candidates for %s: %v", ticker, err)
		return nil
	}

	// candidates come back newest-first; the spec requires oldest-admissible-first processing.
	for i, j := 0, len(candidates)-1; i < j; i, j = i+1, j-1 {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	var results []CandidateResult
	for _, cand := range candidates {
		outcome := e.processCandidate(ctx, ticker, cand, strategy)
		results = append(results, CandidateResult{SignalID: cand.SignalID, Ticker: ticker, Outcome: outcome})
		metrics.ReprocessOutcomesTotal.WithLabelValues(string(outcome)).Inc()
		if outcome == OutcomeSuccess {
			break
		}
	}
	return results
}

func (e *Engine) processCandidate(ctx context.Context, ticker string, cand store.SignalRow, strategy *store.Strategy) Outcome {
	class, err := signal.ClassifyFromPayload(cand.OriginalPayload)
	if err != nil {
		log.Warnf("candidate %s: payload unparseable for classification: %v", cand.SignalID, err)
		return OutcomeFailedReconstruction
	}
	if class != signal.ClassBuy {
		return OutcomeSkippedNonBuy
	}

	isOpen, err := e.Store.IsPositionOpenOrClosing(ctx, ticker)
	if err != nil {
		log.Errorf("candidate %s: position-existence check failed: %v", cand.SignalID, err)
		return OutcomeFailedDatabase
	}
	if isOpen {
		return OutcomeSkippedPositionExists
	}

	if strategy.RespectSellChronologyEnabled {
		hasSell, err := e.Store.HasSubsequentSell(ctx, ticker, cand.CreatedAt, strategy.SellChronologyWindowSeconds)
		if err != nil {
			log.Errorf("candidate %s: chronology check failed: %v", cand.SignalID, err)
			return OutcomeFailedDatabase
		}
		if hasSell {
			return OutcomeSkippedSellChronology
		}
	}

	reconstructed, err := reconstruct(cand)
	if err != nil {
		log.Warnf("candidate %s: reconstruction failed: %v", cand.SignalID, err)
		return OutcomeFailedReconstruction
	}

	outcome, err := e.admit(ctx, ticker, cand)
	if err != nil {
		log.Errorf("candidate %s: admission failed: %v", cand.SignalID, err)
		return OutcomeFailedDatabase
	}
	if outcome != OutcomeSuccess {
		return outcome
	}

	if err := e.ApprovedQueue.Push(reconstructed, nil); err != nil {
		log.Errorf("CRITICAL: position opened for %s (signal %s) but enqueue failed: %v", ticker, cand.SignalID, err)
		metrics.ReprocessCriticalInconsistencyTotal.Inc()
		return OutcomeFailedQueue
	}
	return OutcomeSuccess
}

// admit performs the atomic re-approval + position-open required by
// spec.md §9 ("Reprocessing atomicity"): a single transaction validates the
// signal is still REJECTED, rechecks position state, and opens the
// position, all-or-nothing.
func (e *Engine) admit(ctx context.Context, ticker string, cand store.SignalRow) (Outcome, error) {
	txn, err := e.Store.GetTransaction(ctx)
	if err != nil {
		return OutcomeFailedDatabase, err
	}
	defer txn.Rollback()

	ok, reason, err := e.Store.ReapproveSignalWithValidation(ctx, txn, cand.SignalID, signal.StatusRejected)
	if err != nil {
		return OutcomeFailedDatabase, err
	}
	if !ok {
		if reason == "status_changed" {
			return OutcomeSkippedStatusChanged, nil
		}
		return OutcomeFailedValidation, nil
	}

	// OpenPositionTx re-checks OPEN/CLOSING existence inside this same
	// transaction and returns ErrConflict on a race, which is this step's
	// "recheck is_position_open_or_closing" per spec.md §4.8.e.
	if err := e.Store.OpenPositionTx(ctx, txn, ticker, cand.SignalID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return OutcomeSkippedPositionExists, nil
		}
		return OutcomeFailedDatabase, err
	}

	if err := txn.Commit(); err != nil {
		return OutcomeFailedDatabase, err
	}
	return OutcomeSuccess, nil
}

// reconstruct builds the Signal object forwarded downstream, per spec.md
// §4.8.d's priority order: original_payload, then stored fields, then a
// minimal synthetic fallback.
func reconstruct(cand store.SignalRow) (*signal.Signal, error) {
	if len(cand.OriginalPayload) > 0 && string(cand.OriginalPayload) != "{}" {
		ticker, side, action, price, receivedAt, err := signal.ParsePayload(cand.OriginalPayload)
		if err == nil && ticker != "" {
			if receivedAt.IsZero() {
				receivedAt = cand.ReceivedAt
			}
			return &signal.Signal{
				SignalID:        cand.SignalID,
				Ticker:          ticker,
				Side:            side,
				Action:          action,
				Price:           price,
				ReceivedAt:      receivedAt,
				OriginalPayload: cand.OriginalPayload,
				SignalType:      cand.SignalType,
			}, nil
		}
	}

	if cand.Ticker != "" {
		priceDecimal := signal.NullDecimalFromString(cand.Price)
		return &signal.Signal{
			SignalID:        cand.SignalID,
			Ticker:          cand.Ticker,
			Side:            signal.SideBuy,
			Price:           priceDecimal,
			ReceivedAt:      cand.ReceivedAt,
			OriginalPayload: cand.OriginalPayload,
			SignalType:      cand.SignalType,
		}, nil
	}

	return nil, errors.New("reprocess: candidate has neither parseable payload nor ticker")
}

func (e *Engine) recordCycle(report CycleReport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastCycleAt = time.Now()
	e.lastCycleDur = report.Duration
	for _, r := range report.Results {
		e.processedTotal++
		if r.Outcome == OutcomeSuccess {
			e.successTotal++
		}
	}
}

// HealthSnapshot reports the aggregated health per spec.md §4.8.
func (e *Engine) HealthSnapshot() Health {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lastCycleAt.IsZero() || time.Since(e.lastCycleAt) > time.Hour {
		return Health{Status: "STALE", LastCycleAt: e.lastCycleAt}
	}

	rate := 1.0
	if e.processedTotal > 0 {
		rate = float64(e.successTotal) / float64(e.processedTotal)
	}

	status := "CRITICAL"
	switch {
	case rate >= 0.95 && e.lastCycleDur < 10*time.Second:
		status = "HEALTHY"
	case rate >= 0.85 && e.lastCycleDur < 30*time.Second:
		status = "WARNING"
	}
	return Health{Status: status, SuccessRate: rate, LastCycleAt: e.lastCycleAt}
}
