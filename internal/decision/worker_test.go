package decision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"signalgate/internal/ledger"
	"signalgate/internal/queue"
	"signalgate/internal/ranking"
	"signalgate/internal/signal"
	"signalgate/internal/store"
)

func newTestPool(t *testing.T) (*Pool, store.Store, *ranking.Publisher) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	publisher := ranking.NewPublisher()
	pool := &Pool{
		Size:          1,
		RetryCap:      3,
		Store:         st,
		Ledger:        ledger.New(st),
		Ranking:       publisher,
		InQueue:       queue.New[*signal.Signal](10),
		ApprovedQueue: queue.New[*signal.Signal](10),
	}
	return pool, st, publisher
}

func buySignal(ticker string) *signal.Signal {
	return &signal.Signal{
		SignalID:   signal.NewID(),
		Ticker:     ticker,
		Side:       signal.SideBuy,
		SignalType: signal.TypeBuy,
	}
}

func sellSignal(ticker string) *signal.Signal {
	return &signal.Signal{
		SignalID:   signal.NewID(),
		Ticker:     ticker,
		Side:       signal.SideSell,
		SignalType: signal.TypeSell,
	}
}

func TestProcessOne_BuyNotInRankingIsRejected(t *testing.T) {
	pool, st, _ := newTestPool(t)
	ctx := context.Background()

	sig := buySignal("AAPL")
	_, err := st.InsertSignal(ctx, sig, signal.StatusReceived, signal.TypeBuy)
	require.NoError(t, err)

	pool.processOne(ctx, "w1", sig)

	got, err := st.GetSignal(ctx, sig.SignalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusRejected, got.Status)
	require.Equal(t, 0, pool.ApprovedQueue.Len())
}

func TestProcessOne_BuyInRankingIsApprovedAndOpensPosition(t *testing.T) {
	pool, st, publisher := newTestPool(t)
	ctx := context.Background()
	publisher.Publish(map[string]struct{}{"AAPL": {}}, publisher.Current().FetchedAt)

	sig := buySignal("AAPL")
	_, err := st.InsertSignal(ctx, sig, signal.StatusReceived, signal.TypeBuy)
	require.NoError(t, err)

	pool.processOne(ctx, "w1", sig)

	got, err := st.GetSignal(ctx, sig.SignalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusApproved, got.Status)
	require.Equal(t, 1, pool.ApprovedQueue.Len())

	isOpen, err := pool.Ledger.IsOpenOrClosing(ctx, "AAPL")
	require.NoError(t, err)
	require.True(t, isOpen)
}

func TestProcessOne_DuplicateBuyIsRejected(t *testing.T) {
	pool, st, publisher := newTestPool(t)
	ctx := context.Background()
	publisher.Publish(map[string]struct{}{"AAPL": {}}, publisher.Current().FetchedAt)

	first := buySignal("AAPL")
	_, err := st.InsertSignal(ctx, first, signal.StatusReceived, signal.TypeBuy)
	require.NoError(t, err)
	pool.processOne(ctx, "w1", first)

	second := buySignal("AAPL")
	_, err = st.InsertSignal(ctx, second, signal.StatusReceived, signal.TypeBuy)
	require.NoError(t, err)
	pool.processOne(ctx, "w1", second)

	got, err := st.GetSignal(ctx, second.SignalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusRejected, got.Status)
	require.Equal(t, 1, pool.ApprovedQueue.Len())
}

func TestProcessOne_SellWithNoOpenPositionIsRejected(t *testing.T) {
	pool, st, _ := newTestPool(t)
	ctx := context.Background()

	sig := sellSignal("TSLA")
	_, err := st.InsertSignal(ctx, sig, signal.StatusReceived, signal.TypeSell)
	require.NoError(t, err)

	pool.processOne(ctx, "w1", sig)

	got, err := st.GetSignal(ctx, sig.SignalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusRejected, got.Status)
}

func TestProcessOne_SellWithOpenPositionIsApproved(t *testing.T) {
	pool, st, _ := newTestPool(t)
	ctx := context.Background()

	entry := signal.NewID()
	outcome, err := pool.Ledger.TryOpen(ctx, "TSLA", entry)
	require.NoError(t, err)
	require.Equal(t, ledger.OutcomeOpened, outcome)

	sig := sellSignal("TSLA")
	_, err = st.InsertSignal(ctx, sig, signal.StatusReceived, signal.TypeSell)
	require.NoError(t, err)

	pool.processOne(ctx, "w1", sig)

	got, err := st.GetSignal(ctx, sig.SignalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusApproved, got.Status)
	require.Equal(t, 1, pool.ApprovedQueue.Len())
}

func TestRetryOrGiveUp_RequeuesUntilRetryCapThenRejects(t *testing.T) {
	pool, st, _ := newTestPool(t)
	ctx := context.Background()

	sig := buySignal("NVDA")
	_, err := st.InsertSignal(ctx, sig, signal.StatusReceived, signal.TypeBuy)
	require.NoError(t, err)

	for i := 0; i < pool.RetryCap; i++ {
		pool.retryOrGiveUp(ctx, "w1", sig)
	}
	requeued, err := pool.InQueue.Pop(nil)
	require.NoError(t, err)
	require.Equal(t, sig.SignalID, requeued.SignalID)

	pool.retryOrGiveUp(ctx, "w1", sig)
	got, err := st.GetSignal(ctx, sig.SignalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusRejected, got.Status)
}
