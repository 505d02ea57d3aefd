package refresher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"signalgate/internal/ledger"
	"signalgate/internal/queue"
	"signalgate/internal/ranking"
	"signalgate/internal/reprocess"
	"signalgate/internal/signal"
	"signalgate/internal/store"
)

type fakeSource struct {
	tickers map[string]struct{}
	err     error
	calls   int
}

func (f *fakeSource) Fetch(ctx context.Context, topN int) (map[string]struct{}, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tickers, nil
}

func newTestRefresher(t *testing.T, src *fakeSource) (*Refresher, store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	pub := ranking.NewPublisher()
	q := queue.New[*signal.Signal](10)
	eng := reprocess.New(st, ledger.New(st), q)
	return New(st, src, pub, eng), st
}

func TestForceRefresh_PublishesNewSnapshot(t *testing.T) {
	src := &fakeSource{tickers: map[string]struct{}{"AAPL": {}}}
	r, _ := newTestRefresher(t, src)

	r.ForceRefresh(context.Background())

	snap := r.Publisher.Current()
	require.True(t, snap.Has("AAPL"))
	require.EqualValues(t, 1, snap.Generation)
}

func TestForceRefresh_FailureKeepsLastGoodSnapshot(t *testing.T) {
	src := &fakeSource{tickers: map[string]struct{}{"AAPL": {}}}
	r, _ := newTestRefresher(t, src)
	r.ForceRefresh(context.Background())

	src.err = context.DeadlineExceeded
	r.ForceRefresh(context.Background())

	snap := r.Publisher.Current()
	require.True(t, snap.Has("AAPL"))
	require.EqualValues(t, 1, snap.Generation)
}

func TestForceRefresh_PausedSkipsFetch(t *testing.T) {
	src := &fakeSource{tickers: map[string]struct{}{"AAPL": {}}}
	r, _ := newTestRefresher(t, src)
	r.Pause()

	r.ForceRefresh(context.Background())

	require.Equal(t, 0, src.calls)
	require.False(t, r.Publisher.Current().Has("AAPL"))
}

func TestForceRefresh_TriggersReprocessOnEnteredTicker(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{tickers: map[string]struct{}{}}
	r, st := newTestRefresher(t, src)

	sig := &signal.Signal{SignalID: signal.NewID(), Ticker: "AAPL", Side: signal.SideBuy, OriginalPayload: []byte(`{"ticker":"AAPL","side":"buy"}`)}
	_, err := st.InsertSignal(ctx, sig, signal.StatusReceived, signal.TypeBuy)
	require.NoError(t, err)
	require.NoError(t, st.SetSignalStatus(ctx, sig.SignalID, signal.StatusRejected, "w1", "not_in_ranking"))

	src.tickers = map[string]struct{}{"AAPL": {}}
	r.ForceRefresh(ctx)

	got, err := st.GetSignal(ctx, sig.SignalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusApproved, got.Status)
}
