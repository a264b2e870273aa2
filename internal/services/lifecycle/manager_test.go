package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksNewestFirst(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	for _, name := range []string{"postgres", "redis", "http"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "redis", "postgres"}, order)
}

func TestShutdownJoinsErrorsAndContinues(t *testing.T) {
	m := New(time.Second, nil)
	errA := errors.New("a failed")
	ran := false
	m.Register("b", func(context.Context) error { ran = true; return nil })
	m.Register("a", func(context.Context) error { return errA })

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.True(t, ran)
}

func TestShutdownWaitsForWorkers(t *testing.T) {
	m := New(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})

	m.Go(ctx, "listener", func(ctx context.Context) {
		<-ctx.Done()
		close(finished)
	})
	m.Register("listener", func(context.Context) error {
		cancel()
		return nil
	})

	require.NoError(t, m.Shutdown(context.Background()))
	select {
	case <-finished:
	default:
		t.Fatal("worker did not finish before Shutdown returned")
	}
}

func TestShutdownGivesUpOnStuckWorker(t *testing.T) {
	m := New(50*time.Millisecond, nil)
	block := make(chan struct{})
	defer close(block)
	m.Go(context.Background(), "stuck", func(context.Context) { <-block })

	assert.ErrorIs(t, m.Shutdown(context.Background()), context.DeadlineExceeded)
}

func TestWorkerPanicIsContained(t *testing.T) {
	m := New(time.Second, nil)
	m.Go(context.Background(), "faulty", func(context.Context) { panic("boom") })
	assert.NoError(t, m.Shutdown(context.Background()))
}
