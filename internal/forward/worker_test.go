package forward

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"signalgate/internal/ledger"
	"signalgate/internal/queue"
	"signalgate/internal/ratelimit"
	"signalgate/internal/signal"
	"signalgate/internal/store"
)

func newTestPool(t *testing.T, destURL string) (*Pool, store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	q := queue.New[*signal.Signal](10)
	p := &Pool{
		Size:           2,
		Store:          st,
		Ledger:         ledger.New(st),
		Limiter:        ratelimit.New(1000),
		Queue:          q,
		DestURL:        destURL,
		RequestTimeout: 2 * time.Second,
	}
	return p, st
}

func mustInsertApprovedBuy(t *testing.T, st store.Store, ticker string) *signal.Signal {
	t.Helper()
	sig := &signal.Signal{
		SignalID:   signal.NewID(),
		Ticker:     ticker,
		Side:       signal.SideBuy,
		ReceivedAt: time.Now(),
	}
	_, err := st.InsertSignal(context.Background(), sig, signal.StatusApproved, signal.TypeBuy)
	require.NoError(t, err)
	return sig
}

func mustInsertApprovedSell(t *testing.T, st store.Store, ticker string) *signal.Signal {
	t.Helper()
	sig := &signal.Signal{
		SignalID:   signal.NewID(),
		Ticker:     ticker,
		Action:     signal.ActionExit,
		ReceivedAt: time.Now(),
	}
	_, err := st.InsertSignal(context.Background(), sig, signal.StatusApproved, signal.TypeSell)
	require.NoError(t, err)
	return sig
}

func TestForward_SuccessSetsForwardedOK(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, st := newTestPool(t, srv.URL)
	sig := mustInsertApprovedBuy(t, st, "AAPL")
	require.NoError(t, p.Queue.Push(sig, nil))
	p.Queue.Close()

	done := make(chan struct{})
	p.Run(context.Background(), done)

	got, err := st.GetSignal(context.Background(), sig.SignalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusForwardedOK, got.Status)
	require.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestForward_SellSuccessFinalizesClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, st := newTestPool(t, srv.URL)

	entry := mustInsertApprovedBuy(t, st, "AAPL")
	txn, err := st.GetTransaction(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.OpenPositionTx(context.Background(), txn, "AAPL", entry.SignalID))
	require.NoError(t, txn.Commit())

	exit := mustInsertApprovedSell(t, st, "AAPL")
	ok, err := st.MarkPositionClosing(context.Background(), "AAPL", exit.SignalID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, p.Queue.Push(exit, nil))
	p.Queue.Close()
	p.Run(context.Background(), make(chan struct{}))

	isOpen, err := st.IsPositionOpenOrClosing(context.Background(), "AAPL")
	require.NoError(t, err)
	require.False(t, isOpen)
}

func TestForward_NonOKSetsForwardedErr(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, st := newTestPool(t, srv.URL)
	sig := mustInsertApprovedBuy(t, st, "AAPL")
	require.NoError(t, p.Queue.Push(sig, nil))
	p.Queue.Close()
	p.Run(context.Background(), make(chan struct{}))

	got, err := st.GetSignal(context.Background(), sig.SignalID)
	require.NoError(t, err)
	require.Equal(t, signal.StatusForwardedErr, got.Status)
}
