// Package ledger enforces the at-most-one-OPEN/CLOSING-per-ticker
// invariant for the decision pipeline and the reprocessor, per spec.md
// §4.3. It is a thin layer over store.Store: every operation opens its own
// transaction and re-checks position state under that transaction before
// mutating, so two concurrent callers for the same ticker always resolve
// to exactly one winner.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"signalgate/internal/logging"
	"signalgate/internal/store"
)

var log = logging.For("ledger")

// Outcome is the result of a ledger mutation attempt.
type Outcome int

const (
	// OutcomeOpened means try_open succeeded and a new OPEN position exists.
	OutcomeOpened Outcome = iota
	// OutcomeAlreadyExists means a position was already OPEN/CLOSING.
	OutcomeAlreadyExists
	// OutcomeClosing means try_begin_close succeeded.
	OutcomeClosing
	// OutcomeNotFound means there was nothing to close.
	OutcomeNotFound
)

// Ledger mediates position admission decisions.
type Ledger struct {
	st store.Store
}

// New wraps a Store as a Ledger.
func New(st store.Store) *Ledger {
	return &Ledger{st: st}
}

// TryOpen attempts to open a new position for ticker, entered by
// entrySignalID. It is serializable with respect to the same ticker: the
// transaction re-checks IsPositionOpenOrClosing before inserting.
func (l *Ledger) TryOpen(ctx context.Context, ticker, entrySignalID string) (Outcome, error) {
	txn, err := l.st.GetTransaction(ctx)
	if err != nil {
		return OutcomeAlreadyExists, fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer txn.Rollback()

	if err := l.st.OpenPositionTx(ctx, txn, ticker, entrySignalID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return OutcomeAlreadyExists, nil
		}
		return OutcomeAlreadyExists, fmt.Errorf("ledger: open position %s: %w", ticker, err)
	}
	if err := txn.Commit(); err != nil {
		return OutcomeAlreadyExists, fmt.Errorf("ledger: commit open %s: %w", ticker, err)
	}
	return OutcomeOpened, nil
}

// TryBeginClose marks the newest OPEN position for ticker as CLOSING,
// linking it to exitSignalID.
func (l *Ledger) TryBeginClose(ctx context.Context, ticker, exitSignalID string) (Outcome, error) {
	ok, err := l.st.MarkPositionClosing(ctx, ticker, exitSignalID)
	if err != nil {
		return OutcomeNotFound, fmt.Errorf("ledger: begin close %s: %w", ticker, err)
	}
	if !ok {
		return OutcomeNotFound, nil
	}
	return OutcomeClosing, nil
}

// FinalizeClose transitions a CLOSING position to CLOSED. Called only
// after the exit signal has been forwarded successfully (spec.md §4.6).
func (l *Ledger) FinalizeClose(ctx context.Context, ticker string) error {
	if err := l.st.ClosePosition(ctx, ticker); err != nil {
		return fmt.Errorf("ledger: finalize close %s: %w", ticker, err)
	}
	log.Infof("position closed for %s", ticker)
	return nil
}

// IsOpenOrClosing reports whether ticker currently has an OPEN or CLOSING
// position, used by the reprocessor's position-existence guard.
func (l *Ledger) IsOpenOrClosing(ctx context.Context, ticker string) (bool, error) {
	return l.st.IsPositionOpenOrClosing(ctx, ticker)
}

// OpenTickers returns every ticker with a currently OPEN position, used by
// the bulk sell-all admin action.
func (l *Ledger) OpenTickers(ctx context.Context) ([]string, error) {
	return l.st.OpenPositionTickers(ctx)
}
