package link

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/copi/pkg/wire"
)

type testStream struct {
	reader   *io.PipeReader
	injector *io.PipeWriter

	lock     sync.Mutex
	written  [][]byte
	writeErr error
	writeCh  chan struct{} // signaled on every write attempt
}

func newTestStream() *testStream {
	r, w := io.Pipe()
	return &testStream{reader: r, injector: w, writeCh: make(chan struct{}, 16)}
}

func (s *testStream) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *testStream) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	defer func() {
		select {
		case s.writeCh <- struct{}{}:
		default:
		}
	}()
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.written = append(s.written, append([]byte(nil), p...))
	return len(p), nil
}

func (s *testStream) setWriteErr(err error) {
	s.lock.Lock()
	s.writeErr = err
	s.lock.Unlock()
}

func (s *testStream) writes() [][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([][]byte(nil), s.written...)
}

func (s *testStream) expectWrite(t *testing.T) {
	select {
	case <-s.writeCh:
	case <-time.After(time.Second):
		t.Fatal("expect write timeout")
	}
}

func (s *testStream) inject(t *testing.T, p ...byte) {
	_, err := s.injector.Write(p)
	require.NoError(t, err)
}

type linkTestEnv struct {
	t        *testing.T
	stream   *testStream
	link     *Link
	payloads chan []byte
	errCh    chan error
	cancel   func()
}

func newLinkTestEnv(t *testing.T) *linkTestEnv {
	env := &linkTestEnv{
		t:        t,
		stream:   newTestStream(),
		payloads: make(chan []byte, 16),
		errCh:    make(chan error, 1),
	}
	env.link = New(env.stream)
	env.link.Handler = HandleFrameFunc(func(ctx context.Context, payload []byte) {
		env.payloads <- payload
	})
	return env
}

func (e *linkTestEnv) start() *linkTestEnv {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go func() {
		e.errCh <- e.link.Run(ctx)
	}()
	return e
}

func (e *linkTestEnv) stop() {
	e.cancel()
	e.stream.injector.Close()
}

func (e *linkTestEnv) expectPayload(expected ...byte) {
	select {
	case payload := <-e.payloads:
		require.Equal(e.t, expected, payload)
	case <-time.After(time.Second):
		e.t.Fatal("expect payload timeout")
	}
}

func (e *linkTestEnv) expectNoPayload() {
	select {
	case payload := <-e.payloads:
		e.t.Fatalf("unexpected payload %v", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func (e *linkTestEnv) expectStopped() error {
	select {
	case err := <-e.errCh:
		return err
	case <-time.After(time.Second):
		e.t.Fatal("Run didn't stop")
	}
	return nil
}

func TestReceiveFrames(t *testing.T) {
	env := newLinkTestEnv(t).start()
	defer env.stop()

	env.stream.inject(t, 0x00, 0x11, wire.FrameStart, 2, 1, 2)
	env.expectPayload(1, 2)
	env.stream.inject(t, wire.FrameStart, 1, 3, wire.FrameStart, 0, wire.FrameStart, 1, 4)
	env.expectPayload(3)
	env.expectPayload(4)
}

func TestPartialFrameTimeout(t *testing.T) {
	env := newLinkTestEnv(t)
	env.link.Timeout = 10 * time.Millisecond
	env.start()
	defer env.stop()

	env.stream.inject(t, wire.FrameStart, 3, 1)
	time.Sleep(50 * time.Millisecond)
	env.stream.inject(t, wire.FrameStart, 1, 9)
	env.expectPayload(9)
	env.expectNoPayload()
}

func TestSendWritesOneFrame(t *testing.T) {
	env := newLinkTestEnv(t).start()
	defer env.stop()

	require.NoError(t, env.link.Send(context.Background(), []byte{1, 2, 3}))
	require.NoError(t, env.link.Send(context.Background(), []byte{4}))
	require.Equal(t, [][]byte{
		{wire.FrameStart, 3, 1, 2, 3},
		{wire.FrameStart, 1, 4},
	}, env.stream.writes())
}

func TestSendReportsWriteError(t *testing.T) {
	env := newLinkTestEnv(t).start()
	defer env.stop()

	writeErr := errors.New("write failed")
	env.stream.setWriteErr(writeErr)
	require.Equal(t, writeErr, env.link.Send(context.Background(), []byte{1}))

	// the loop keeps running.
	env.stream.setWriteErr(nil)
	require.NoError(t, env.link.Send(context.Background(), []byte{2}))
}

func TestPostLogsWriteError(t *testing.T) {
	env := newLinkTestEnv(t).start()
	defer env.stop()

	env.stream.setWriteErr(errors.New("write failed"))
	require.NoError(t, env.link.Post([]byte{1}))
	env.stream.expectWrite(t)
	env.stream.inject(t, wire.FrameStart, 1, 7)
	env.expectPayload(7)

	env.stream.setWriteErr(nil)
	require.NoError(t, env.link.Post([]byte{2}))
	env.stream.expectWrite(t)
	require.Equal(t, [][]byte{{wire.FrameStart, 1, 2}}, env.stream.writes())
}

func TestSendRejectsOversizedPayload(t *testing.T) {
	env := newLinkTestEnv(t)
	err := env.link.Send(context.Background(), make([]byte, wire.MaxPayloadSize+1))
	require.True(t, errors.Is(err, wire.ErrFrameTooLarge))
	require.True(t, errors.Is(env.link.Post(nil), wire.ErrFrameTooLarge))
}

func TestPostQueueFull(t *testing.T) {
	env := newLinkTestEnv(t)
	for n := 0; n < DefaultQueueSize; n++ {
		require.NoError(t, env.link.Post([]byte{byte(n)}))
	}
	require.Equal(t, ErrQueueFull, env.link.Post([]byte{0xff}))
}

func TestReadFailureDisconnects(t *testing.T) {
	env := newLinkTestEnv(t).start()
	defer env.cancel()

	env.stream.injector.CloseWithError(errors.New("device gone"))
	err := env.expectStopped()
	require.True(t, errors.Is(err, ErrDisconnected))
	require.Equal(t, err, env.link.Err())

	select {
	case <-env.link.Done():
	default:
		t.Fatal("Done not closed")
	}
	require.Equal(t, ErrDisconnected, env.link.Send(context.Background(), []byte{1}))
	require.Equal(t, ErrDisconnected, env.link.Post([]byte{1}))
}

func TestCancelStopsRun(t *testing.T) {
	env := newLinkTestEnv(t).start()
	env.cancel()
	require.Equal(t, context.Canceled, env.expectStopped())
	require.Equal(t, ErrDisconnected, env.link.Send(context.Background(), []byte{1}))
	env.stream.injector.Close()
}

func TestSendHonorsContext(t *testing.T) {
	env := newLinkTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for n := 0; n < DefaultQueueSize; n++ {
		env.link.Post([]byte{1})
	}
	require.Equal(t, context.Canceled, env.link.Send(ctx, []byte{1}))
}
