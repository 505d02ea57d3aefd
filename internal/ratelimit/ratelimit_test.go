package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquire_WithinBudget_NeverBlocks(t *testing.T) {
	l := New(5)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := l.Acquire(ctx)
		require.NoError(t, err)
	}
}

func TestAcquire_OverBudget_Blocks(t *testing.T) {
	l := New(2)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := l.Acquire(ctx)
		require.NoError(t, err)
	}

	ctx2, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err := l.Acquire(ctx2)
	require.Error(t, err, "third acquire within the same 60s window should block until ctx deadline")
}

func TestPause_AcquireIsImmediate(t *testing.T) {
	l := New(1)
	ctx := context.Background()
	_, err := l.Acquire(ctx)
	require.NoError(t, err)

	l.Pause()
	done := make(chan struct{})
	go func() {
		_, err := l.Acquire(ctx)
		require.NoError(t, err)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire should return immediately while paused")
	}
}

func TestAcquire_FairAcrossConcurrentWaiters(t *testing.T) {
	l := New(50)
	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Acquire(ctx)
			require.NoError(t, err)
			mu.Lock()
			granted++
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, 50, granted)
}
