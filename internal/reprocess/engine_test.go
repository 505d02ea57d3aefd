package reprocess

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"signalgate/internal/ledger"
	"signalgate/internal/queue"
	"signalgate/internal/signal"
	"signalgate/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, store.Store, *queue.Queue[*signal.Signal]) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	q := queue.New[*signal.Signal](100)
	e := New(st, ledger.New(st), q)
	return e, st, q
}

func rejectedBuy(t *testing.T, st store.Store, ticker string, at time.Time) string {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"ticker": ticker, "side": "buy"})
	require.NoError(t, err)
	sig := &signal.Signal{
		SignalID:        signal.NewID(),
		Ticker:          ticker,
		Side:            signal.SideBuy,
		ReceivedAt:      at,
		OriginalPayload: payload,
	}
	_, err = st.InsertSignal(context.Background(), sig, signal.StatusReceived, signal.TypeBuy)
	require.NoError(t, err)
	require.NoError(t, st.SetSignalStatus(context.Background(), sig.SignalID, signal.StatusRejected, "w1", "not_in_ranking"))
	return sig.SignalID
}

func defaultStrategy() *store.Strategy {
	return &store.Strategy{
		ID:                  "default",
		MaxSignalsPerTicker: 20,
	}
}

func TestEngine_ReprocessesRejectedBuyIntoOpenPosition(t *testing.T) {
	ctx := context.Background()
	e, st, q := newTestEngine(t)

	signalID := rejectedBuy(t, st, "AAPL", time.Now().Add(-time.Minute))

	report := e.Run(ctx, map[string]struct{}{"AAPL": {}}, defaultStrategy(), 0)
	require.Len(t, report.Results, 1)
	require.Equal(t, OutcomeSuccess, report.Results[0].Outcome)

	got, err := st.GetSignal(ctx, signalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusApproved, got.Status)

	isOpen, err := st.IsPositionOpenOrClosing(ctx, "AAPL")
	require.NoError(t, err)
	require.True(t, isOpen)

	require.Equal(t, 1, q.Len())
}

func TestEngine_SkipsWhenPositionAlreadyOpen(t *testing.T) {
	ctx := context.Background()
	e, st, _ := newTestEngine(t)

	entrySignalID := rejectedBuy(t, st, "AAPL", time.Now().Add(-time.Minute))
	require.NoError(t, st.SetSignalStatus(ctx, entrySignalID, signal.StatusApproved, "w1", "manual"))
	txn, err := st.GetTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, st.OpenPositionTx(ctx, txn, "AAPL", entrySignalID))
	require.NoError(t, txn.Commit())

	secondCandidate := rejectedBuy(t, st, "AAPL", time.Now())

	report := e.Run(ctx, map[string]struct{}{"AAPL": {}}, defaultStrategy(), 0)
	require.Len(t, report.Results, 1)
	require.Equal(t, OutcomeSkippedPositionExists, report.Results[0].Outcome)
	require.Equal(t, secondCandidate, report.Results[0].SignalID)
}

func TestEngine_RespectsSellChronology(t *testing.T) {
	ctx := context.Background()
	e, st, _ := newTestEngine(t)

	buyAt := time.Now().Add(-2 * time.Minute)
	buyID := rejectedBuy(t, st, "AAPL", buyAt)

	sellSig := &signal.Signal{
		SignalID:   signal.NewID(),
		Ticker:     "AAPL",
		Action:     signal.ActionExit,
		ReceivedAt: buyAt.Add(30 * time.Second),
	}
	_, err := st.InsertSignal(ctx, sellSig, signal.StatusRejected, signal.TypeSell)
	require.NoError(t, err)

	strategy := defaultStrategy()
	strategy.RespectSellChronologyEnabled = true
	strategy.SellChronologyWindowSeconds = 300

	report := e.Run(ctx, map[string]struct{}{"AAPL": {}}, strategy, 0)
	require.Len(t, report.Results, 1)
	require.Equal(t, OutcomeSkippedSellChronology, report.Results[0].Outcome)
	require.Equal(t, buyID, report.Results[0].SignalID)
}

func TestEngine_Idempotent_SecondRunFindsNothing(t *testing.T) {
	ctx := context.Background()
	e, st, _ := newTestEngine(t)
	rejectedBuy(t, st, "AAPL", time.Now().Add(-time.Minute))

	first := e.Run(ctx, map[string]struct{}{"AAPL": {}}, defaultStrategy(), 0)
	require.Len(t, first.Results, 1)
	require.Equal(t, OutcomeSuccess, first.Results[0].Outcome)

	second := e.Run(ctx, map[string]struct{}{"AAPL": {}}, defaultStrategy(), 0)
	require.Empty(t, second.Results)
}

func TestHealthSnapshot_StaleWithoutCycles(t *testing.T) {
	e, _, _ := newTestEngine(t)
	h := e.HealthSnapshot()
	require.Equal(t, "STALE", h.Status)
}

func TestHealthSnapshot_HealthyAfterAllSuccess(t *testing.T) {
	ctx := context.Background()
	e, st, _ := newTestEngine(t)
	rejectedBuy(t, st, "AAPL", time.Now().Add(-time.Minute))

	e.Run(ctx, map[string]struct{}{"AAPL": {}}, defaultStrategy(), 0)

	h := e.HealthSnapshot()
	require.Equal(t, "HEALTHY", h.Status)
	require.Equal(t, 1.0, h.SuccessRate)
}
