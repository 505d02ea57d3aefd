package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTryPush_FullReturnsBackpressure(t *testing.T) {
	q := New[int](2)
	require.NoError(t, q.TryPush(1))
	require.NoError(t, q.TryPush(2))
	err := q.TryPush(3)
	require.ErrorIs(t, err, ErrFull)
}

func TestPop_FIFOOrder(t *testing.T) {
	q := New[int](3)
	done := make(chan struct{})
	require.NoError(t, q.TryPush(1))
	require.NoError(t, q.TryPush(2))
	require.NoError(t, q.TryPush(3))

	for _, want := range []int{1, 2, 3} {
		got, err := q.Pop(done)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestPop_UnblocksOnDone(t *testing.T) {
	q := New[int](1)
	done := make(chan struct{})
	close(done)
	_, err := q.Pop(done)
	require.ErrorIs(t, err, ErrClosed)
}
