package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

type ctxKey struct{}

func TestRunnerTaskSurvivesCallerCancellation(t *testing.T) {
	r := NewRunner(time.Second, logging.Discard())

	parent, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-1"))
	started := make(chan struct{})
	release := make(chan struct{})
	var sawValue atomic.Value
	var ctxErr atomic.Value

	require.NoError(t, r.Go(parent, "webhook", func(ctx context.Context) error {
		close(started)
		<-release
		sawValue.Store(ctx.Value(ctxKey{}))
		if err := ctx.Err(); err != nil {
			ctxErr.Store(err)
		}
		return nil
	}))

	<-started
	cancel()
	close(release)

	require.NoError(t, r.Wait(context.Background()))
	assert.Equal(t, "req-1", sawValue.Load())
	assert.Nil(t, ctxErr.Load(), "task context must not inherit cancellation")
}

func TestRunnerAppliesTimeout(t *testing.T) {
	r := NewRunner(20*time.Millisecond, logging.Discard())
	var got error
	done := make(chan struct{})
	r.OnDone(func(name string, err error, _ time.Duration) {
		got = err
		close(done)
	})

	require.NoError(t, r.Go(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not time out")
	}
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}

func TestRunnerRecoversPanics(t *testing.T) {
	r := NewRunner(time.Second, logging.Discard())
	var got error
	r.OnDone(func(_ string, err error, _ time.Duration) { got = err })

	require.NoError(t, r.Go(context.Background(), "boom", func(context.Context) error {
		panic("kaboom")
	}))
	require.NoError(t, r.Wait(context.Background()))
	assert.Error(t, got)
}

func TestRunnerShutdownRejectsNewTasks(t *testing.T) {
	r := NewRunner(time.Second, logging.Discard())
	var ran atomic.Int32
	require.NoError(t, r.Go(context.Background(), "first", func(context.Context) error {
		ran.Add(1)
		return nil
	}))

	require.NoError(t, r.Shutdown(context.Background()))
	assert.Equal(t, int32(1), ran.Load())

	err := r.Go(context.Background(), "late", func(context.Context) error { return nil })
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestRunnerWaitHonorsContext(t *testing.T) {
	r := NewRunner(time.Second, logging.Discard())
	release := make(chan struct{})
	defer close(release)
	require.NoError(t, r.Go(context.Background(), "stuck", func(context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}
