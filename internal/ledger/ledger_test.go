package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"signalgate/internal/signal"
	"signalgate/internal/store"
)

func newTestLedger(t *testing.T) (*Ledger, context.Context) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st), context.Background()
}

func TestTryOpen_FirstCallerWinsSecondSeesAlreadyExists(t *testing.T) {
	l, ctx := newTestLedger(t)

	outcome, err := l.TryOpen(ctx, "AAPL", signal.NewID())
	require.NoError(t, err)
	require.Equal(t, OutcomeOpened, outcome)

	outcome, err = l.TryOpen(ctx, "AAPL", signal.NewID())
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyExists, outcome)
}

func TestTryOpen_ConcurrentCallersExactlyOneWinner(t *testing.T) {
	l, ctx := newTestLedger(t)

	const n = 8
	outcomes := make([]Outcome, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			outcome, err := l.TryOpen(ctx, "TSLA", signal.NewID())
			require.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	opened := 0
	for _, o := range outcomes {
		if o == OutcomeOpened {
			opened++
		}
	}
	require.Equal(t, 1, opened)
}

func TestTryBeginClose_NoPositionReturnsNotFound(t *testing.T) {
	l, ctx := newTestLedger(t)

	outcome, err := l.TryBeginClose(ctx, "MSFT", signal.NewID())
	require.NoError(t, err)
	require.Equal(t, OutcomeNotFound, outcome)
}

func TestTryBeginClose_OpenPositionTransitionsToClosing(t *testing.T) {
	l, ctx := newTestLedger(t)

	_, err := l.TryOpen(ctx, "NVDA", signal.NewID())
	require.NoError(t, err)

	outcome, err := l.TryBeginClose(ctx, "NVDA", signal.NewID())
	require.NoError(t, err)
	require.Equal(t, OutcomeClosing, outcome)

	// A second close attempt finds no OPEN position left to claim.
	outcome, err = l.TryBeginClose(ctx, "NVDA", signal.NewID())
	require.NoError(t, err)
	require.Equal(t, OutcomeNotFound, outcome)
}

func TestFinalizeClose_ClearsOpenOrClosing(t *testing.T) {
	l, ctx := newTestLedger(t)

	_, err := l.TryOpen(ctx, "AMD", signal.NewID())
	require.NoError(t, err)
	_, err = l.TryBeginClose(ctx, "AMD", signal.NewID())
	require.NoError(t, err)

	require.NoError(t, l.FinalizeClose(ctx, "AMD"))

	isOpen, err := l.IsOpenOrClosing(ctx, "AMD")
	require.NoError(t, err)
	require.False(t, isOpen)
}

func TestOpenTickers_ListsOnlyOpenPositions(t *testing.T) {
	l, ctx := newTestLedger(t)

	_, err := l.TryOpen(ctx, "AAPL", signal.NewID())
	require.NoError(t, err)
	_, err = l.TryOpen(ctx, "TSLA", signal.NewID())
	require.NoError(t, err)
	_, err = l.TryBeginClose(ctx, "TSLA", signal.NewID())
	require.NoError(t, err)

	tickers, err := l.OpenTickers(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"AAPL"}, tickers)
}
