package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"signalgate/internal/signal"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func insertSignal(t *testing.T, st Store, ticker string, class signal.Class) *signal.Signal {
	t.Helper()
	sig := &signal.Signal{
		SignalID:        signal.NewID(),
		Ticker:          ticker,
		ReceivedAt:      time.Now(),
		OriginalPayload: json.RawMessage(`{"ticker":"` + ticker + `"}`),
	}
	signalType := signal.TypeBuy
	if class == signal.ClassSell {
		signalType = signal.TypeSell
		sig.Action = signal.ActionExit
	}
	_, err := st.InsertSignal(context.Background(), sig, signal.StatusReceived, signalType)
	require.NoError(t, err)
	sig.SignalType = signalType
	return sig
}

func TestInsertSignal_EmitsInitialEvent(t *testing.T) {
	st := newTestStore(t)
	sig := insertSignal(t, st, "AAPL", signal.ClassBuy)

	got, err := st.GetSignal(context.Background(), sig.SignalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusReceived, got.Status)
}

func TestOpenPositionTx_RejectsSecondOpen(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sigA := insertSignal(t, st, "AAPL", signal.ClassBuy)
	sigB := insertSignal(t, st, "AAPL", signal.ClassBuy)

	txn, err := st.GetTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, st.OpenPositionTx(ctx, txn, "AAPL", sigA.SignalID))
	require.NoError(t, txn.Commit())

	txn2, err := st.GetTransaction(ctx)
	require.NoError(t, err)
	err = st.OpenPositionTx(ctx, txn2, "AAPL", sigB.SignalID)
	require.ErrorIs(t, err, ErrConflict)
	_ = txn2.Rollback()
}

func TestMarkPositionClosing_NotFoundWhenNoOpenPosition(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	ok, err := st.MarkPositionClosing(ctx, "AAPL", "exit-sig")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMarkPositionClosing_ThenClose_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	entry := insertSignal(t, st, "AAPL", signal.ClassBuy)
	exit := insertSignal(t, st, "AAPL", signal.ClassSell)

	txn, err := st.GetTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, st.OpenPositionTx(ctx, txn, "AAPL", entry.SignalID))
	require.NoError(t, txn.Commit())

	ok, err := st.MarkPositionClosing(ctx, "AAPL", exit.SignalID)
	require.NoError(t, err)
	require.True(t, ok)

	isOpen, err := st.IsPositionOpenOrClosing(ctx, "AAPL")
	require.NoError(t, err)
	require.True(t, isOpen)

	require.NoError(t, st.ClosePosition(ctx, "AAPL"))

	isOpen, err = st.IsPositionOpenOrClosing(ctx, "AAPL")
	require.NoError(t, err)
	require.False(t, isOpen)
}

func TestReapproveSignalWithValidation_FailsIfStatusChanged(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sig := insertSignal(t, st, "AAPL", signal.ClassBuy)
	require.NoError(t, st.SetSignalStatus(ctx, sig.SignalID, signal.StatusApproved, "w1", "manual"))

	txn, err := st.GetTransaction(ctx)
	require.NoError(t, err)
	ok, reason, err := st.ReapproveSignalWithValidation(ctx, txn, sig.SignalID, signal.StatusRejected)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "status_changed", reason)
	_ = txn.Rollback()
}

func TestReapproveSignalWithValidation_SucceedsWhenRejected(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sig := insertSignal(t, st, "AAPL", signal.ClassBuy)
	require.NoError(t, st.SetSignalStatus(ctx, sig.SignalID, signal.StatusRejected, "w1", "not_in_ranking"))

	txn, err := st.GetTransaction(ctx)
	require.NoError(t, err)
	ok, _, err := st.ReapproveSignalWithValidation(ctx, txn, sig.SignalID, signal.StatusRejected)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, txn.Commit())

	got, err := st.GetSignal(ctx, sig.SignalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusApproved, got.Status)
}

func TestGetRejectedBuyCandidates_UnboundedWindowWhenZero(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sig := insertSignal(t, st, "AAPL", signal.ClassBuy)
	require.NoError(t, st.SetSignalStatus(ctx, sig.SignalID, signal.StatusRejected, "w1", "not_in_ranking"))

	rows, err := st.GetRejectedBuyCandidates(ctx, "AAPL", 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, sig.SignalID, rows[0].SignalID)
}

func TestActiveStrategy_ExactlyOneActive(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	active, err := st.ActiveStrategy(ctx)
	require.NoError(t, err)
	require.Equal(t, "default", active.ID)

	require.NoError(t, st.UpsertStrategy(ctx, &Strategy{ID: "alt", Name: "alt", TopN: 10, RefreshIntervalSec: 30}))
	require.NoError(t, st.SwitchActiveStrategy(ctx, "alt"))

	active, err = st.ActiveStrategy(ctx)
	require.NoError(t, err)
	require.Equal(t, "alt", active.ID)

	all, err := st.ListStrategies(ctx)
	require.NoError(t, err)
	activeCount := 0
	for _, s := range all {
		if s.IsActive {
			activeCount++
		}
	}
	require.Equal(t, 1, activeCount)
}

func TestClearAll_RemovesEverythingInFKOrder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sig := insertSignal(t, st, "AAPL", signal.ClassBuy)
	txn, err := st.GetTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, st.OpenPositionTx(ctx, txn, "AAPL", sig.SignalID))
	require.NoError(t, txn.Commit())

	require.NoError(t, st.ClearAll(ctx))

	_, err = st.GetSignal(ctx, sig.SignalID)
	require.ErrorIs(t, err, ErrNotFound)
	tickers, err := st.OpenPositionTickers(ctx)
	require.NoError(t, err)
	require.Empty(t, tickers)
}
