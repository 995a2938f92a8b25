package framework

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitRunner(t *testing.T, r *Runner) error {
	errCh := make(chan error, 1)
	go func() { errCh <- r.Wait() }()
	select {
	case err := <-errCh:
		return err
	case <-time.After(time.Second):
		t.Fatal("runner didn't stop")
	}
	return nil
}

func TestRunnerFirstStopCancelsOthers(t *testing.T) {
	errFailed := errors.New("failed")
	r := NewRunner()
	r.Go(
		NamedRun("blocker", RunnableFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
		RunnableFunc(func(context.Context) error { return errFailed }),
	)
	err := waitRunner(t, r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errFailed))
	assert.Equal(t, "1: failed", err.Error())
	var re *RunnableError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "1", re.Name)
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner()
	r.Go(RunnableFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	r.Stop()
	assert.NoError(t, waitRunner(t, r))
}

func TestNameOf(t *testing.T) {
	assert.Equal(t, "x", NameOf(NamedRun("x", RunnableFunc(nil)), "0"))
	assert.Equal(t, "0", NameOf(RunnableFunc(nil), "0"))
}

func TestStopErrors(t *testing.T) {
	var errs StopErrors
	assert.NoError(t, errs.Err())
	errs = append(errs, &RunnableError{Name: "link", Err: io.EOF}, io.ErrUnexpectedEOF)
	err := errs.Err()
	assert.True(t, errors.Is(err, io.EOF))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "2 runnables failed:\n  link: EOF\n  unexpected EOF", err.Error())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	closes := 0
	closer := closerFunc(func() error {
		closes++
		close(unblock)
		return nil
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- RunWithContextCloser(ctx, closer, func() error {
			<-unblock
			return io.EOF
		})
	}()
	cancel()
	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("not unblocked")
	}
	assert.Equal(t, 1, closes)
}
