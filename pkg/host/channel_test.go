package host

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/copi/pkg/wire"
)

type pipeRW struct {
	io.Reader
	io.Writer
}

// fakeDevice decodes requests written by the host and lets tests respond
// in any order.
type fakeDevice struct {
	t        *testing.T
	toHost   *io.PipeWriter
	fromHost *io.PipeReader
	requests chan *wire.Request
}

type channelTestEnv struct {
	t      *testing.T
	dev    *fakeDevice
	ch     *Channel
	errCh  chan error
	cancel func()
}

func newChannelTestEnv(t *testing.T) *channelTestEnv {
	hostR, devW := io.Pipe()
	devR, hostW := io.Pipe()
	dev := &fakeDevice{
		t:        t,
		toHost:   devW,
		fromHost: devR,
		requests: make(chan *wire.Request, 16),
	}
	go dev.readLoop()
	ctx, cancel := context.WithCancel(context.Background())
	env := &channelTestEnv{
		t:      t,
		dev:    dev,
		ch:     NewChannel(&pipeRW{Reader: hostR, Writer: hostW}),
		errCh:  make(chan error, 1),
		cancel: cancel,
	}
	go func() {
		env.errCh <- env.ch.Run(ctx)
	}()
	return env
}

func (e *channelTestEnv) stop() {
	e.cancel()
	e.dev.toHost.Close()
	e.dev.fromHost.Close()
}

func (d *fakeDevice) readLoop() {
	var parser wire.Parser
	buf := make([]byte, wire.MaxPacketSize)
	for {
		n, err := d.fromHost.Read(buf)
		for _, b := range buf[:n] {
			if pr := parser.Parse(b); pr.Payload != nil {
				req, err := wire.DecodeRequest(pr.Payload)
				if err == nil {
					d.requests <- req
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func (d *fakeDevice) expectRequest() *wire.Request {
	select {
	case req := <-d.requests:
		return req
	case <-time.After(time.Second):
		d.t.Fatal("expect request timeout")
	}
	return nil
}

func (d *fakeDevice) respond(id uint16, code wire.ErrorCode, data uint64) {
	frame, err := wire.EncodeResponse(&wire.Response{ID: id, Result: wire.Result{Code: code, Data: data}})
	require.NoError(d.t, err)
	_, err = d.toHost.Write(frame)
	require.NoError(d.t, err)
}

func expectResult(t *testing.T, call *Call) Result {
	select {
	case res := <-call.ResultChan():
		return res
	case <-time.After(time.Second):
		t.Fatal("expect result timeout")
	}
	return Result{}
}

func TestIDAllocatorSkipsZero(t *testing.T) {
	var a IDAllocator
	assert.Equal(t, uint16(1), a.Next())
	assert.Equal(t, uint16(2), a.Next())
	a.counter.Store(0xfffe)
	assert.Equal(t, uint16(0xffff), a.Next())
	assert.Equal(t, uint16(1), a.Next())
}

func TestOutOfOrderResponses(t *testing.T) {
	env := newChannelTestEnv(t)
	defer env.stop()

	ctx := context.Background()
	first := env.ch.Do(ctx, &wire.GpioOutputGet{Pin: 1})
	second := env.ch.Do(ctx, &wire.GpioOutputGet{Pin: 2})
	req1, req2 := env.dev.expectRequest(), env.dev.expectRequest()
	require.NotZero(t, req1.ID)
	require.NotZero(t, req2.ID)
	require.NotEqual(t, req1.ID, req2.ID)
	require.Equal(t, first.ID(), req1.ID)
	require.Equal(t, second.ID(), req2.ID)

	env.dev.respond(req2.ID, wire.OK, 0)
	env.dev.respond(req1.ID, wire.OK, 1)
	res := expectResult(t, first)
	require.NoError(t, res.Err)
	assert.Equal(t, uint64(1), res.Data)
	res = expectResult(t, second)
	require.NoError(t, res.Err)
	assert.Equal(t, uint64(0), res.Data)
	assert.Zero(t, env.ch.Pending())
}

func TestQuery(t *testing.T) {
	env := newChannelTestEnv(t)
	defer env.stop()

	go func() {
		req := env.dev.expectRequest()
		env.dev.respond(req.ID, wire.WrongPinState, 0)
	}()
	res, err := env.ch.Query(context.Background(), &wire.GpioOutputSet{Pin: 3, State: true})
	require.NoError(t, err)
	assert.Equal(t, wire.WrongPinState, res.Code)
	assert.Error(t, res.Err())
}

func TestSendUsesIDZero(t *testing.T) {
	env := newChannelTestEnv(t)
	defer env.stop()

	require.NoError(t, env.ch.Send(context.Background(), &wire.GpioOutputSet{Pin: 3}))
	req := env.dev.expectRequest()
	assert.Zero(t, req.ID)
	assert.Equal(t, &wire.GpioOutputSet{Pin: 3}, req.Command)
	assert.Zero(t, env.ch.Pending())
}

func TestDiscardUnmatchedResponses(t *testing.T) {
	env := newChannelTestEnv(t)
	defer env.stop()

	call := env.ch.Do(context.Background(), &wire.GpioOutputGet{Pin: 1})
	req := env.dev.expectRequest()
	env.dev.respond(0, wire.OK, 5)
	env.dev.respond(req.ID+100, wire.OK, 6)
	env.dev.respond(req.ID, wire.OK, 7)
	res := expectResult(t, call)
	require.NoError(t, res.Err)
	assert.Equal(t, uint64(7), res.Data)
}

func TestQueryHonorsContext(t *testing.T) {
	env := newChannelTestEnv(t)
	defer env.stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := env.ch.Query(ctx, &wire.GpioOutputGet{Pin: 1})
	require.Equal(t, context.DeadlineExceeded, err)
	env.dev.expectRequest()
	assert.Zero(t, env.ch.Pending())
}

func TestDisconnectFailsPending(t *testing.T) {
	env := newChannelTestEnv(t)
	defer env.stop()

	call := env.ch.Do(context.Background(), &wire.GpioOutputGet{Pin: 1})
	env.dev.expectRequest()
	env.dev.toHost.CloseWithError(errors.New("unplugged"))

	res := expectResult(t, call)
	require.Equal(t, ErrDisconnected, res.Err)
	select {
	case err := <-env.errCh:
		require.True(t, errors.Is(err, ErrDisconnected))
	case <-time.After(time.Second):
		t.Fatal("Run didn't stop")
	}

	_, err := env.ch.Query(context.Background(), &wire.GpioOutputGet{Pin: 1})
	require.Equal(t, ErrDisconnected, err)
}

func TestWriteFailureSurfaces(t *testing.T) {
	env := newChannelTestEnv(t)
	defer env.stop()

	env.dev.fromHost.CloseWithError(errors.New("broken"))
	res := expectResult(t, env.ch.Do(context.Background(), &wire.GpioOutputGet{Pin: 1}))
	require.Error(t, res.Err)
	require.Error(t, env.ch.Send(context.Background(), &wire.GpioOutputGet{Pin: 1}))
	assert.Zero(t, env.ch.Pending())
}
