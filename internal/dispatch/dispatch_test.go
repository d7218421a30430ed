package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReturnsResult(t *testing.T) {
	p := NewPool(2, 4)
	defer p.Close()

	out, err := p.Submit(context.Background(), func() (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestSubmitPropagatesError(t *testing.T) {
	p := NewPool(1, 1)
	defer p.Close()

	wantErr := assert.AnError
	_, err := p.Submit(context.Background(), func() (any, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestSubmitRunsConcurrently(t *testing.T) {
	p := NewPool(4, 8)
	defer p.Close()

	var running atomic.Int32
	var peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Submit(context.Background(), func() (any, error) {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				running.Add(-1)
				return nil, nil
			})
		}()
	}
	wg.Wait()
	assert.Greater(t, peak.Load(), int32(1))
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestAbandonedCallStillCompletes(t *testing.T) {
	p := NewPool(1, 1)
	defer p.Close()

	started := make(chan struct{})
	finished := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_, _ = p.Submit(context.Background(), func() (any, error) {
			close(started)
			time.Sleep(50 * time.Millisecond)
			close(finished)
			return nil, nil
		})
	}()

	<-started
	cancel()
	_, err := p.Submit(ctx, func() (any, error) { return nil, nil })
	require.Error(t, err)

	// The running task is not interrupted by the abandonment.
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("running task did not complete")
	}
}

type countedResult struct {
	released chan struct{}
}

func (c *countedResult) Release() { close(c.released) }

func TestAbandonedResultIsReleased(t *testing.T) {
	p := NewPool(1, 1)
	defer p.Close()

	started := make(chan struct{})
	res := &countedResult{released: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := p.Submit(ctx, func() (any, error) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		return res, nil
	})
	require.Error(t, err)

	// The discarded value's references are dropped once the task finishes.
	select {
	case <-res.released:
	case <-time.After(time.Second):
		t.Fatal("abandoned result was not released")
	}
}

func TestCloseRejectsNewWork(t *testing.T) {
	p := NewPool(1, 1)
	p.Close()

	_, err := p.Submit(context.Background(), func() (any, error) { return nil, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestDefaultSizing(t *testing.T) {
	p := NewPool(0, 0)
	defer p.Close()
	assert.Greater(t, p.Workers(), 0)
}
