package bridge_test

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/copi/pkg/bridge"
	"github.com/robotalks/copi/pkg/bridge/msgs"
	"github.com/robotalks/copi/pkg/bridge/pb"
	"github.com/robotalks/copi/pkg/dispatch"
	"github.com/robotalks/copi/pkg/hal/sim"
	"github.com/robotalks/copi/pkg/host"
	"github.com/robotalks/copi/pkg/periph"
	"github.com/robotalks/copi/pkg/wire"
)

// packetPipe is one end of an in-memory packet connection.
type packetPipe struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once *sync.Once
}

func newPacketPipes() (*packetPipe, *packetPipe) {
	ab, ba := make(chan []byte, 16), make(chan []byte, 16)
	done, once := make(chan struct{}), &sync.Once{}
	return &packetPipe{in: ba, out: ab, done: done, once: once},
		&packetPipe{in: ab, out: ba, done: done, once: once}
}

func (p *packetPipe) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.in:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

func (p *packetPipe) WritePacket(pkt []byte) error {
	select {
	case p.out <- pkt:
		return nil
	case <-p.done:
		return io.ErrClosedPipe
	}
}

func (p *packetPipe) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

type bridgeTestEnv struct {
	dev    *sim.Device
	conn   *bridge.Conn
	cancel func()
	wg     sync.WaitGroup
}

func (e *bridgeTestEnv) goRun(fn func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
}

func (e *bridgeTestEnv) stop() {
	e.cancel()
	e.wg.Wait()
}

// newBridgeTestEnv wires client Conn -> Server -> Channel -> dispatcher -> sim.
func newBridgeTestEnv(t *testing.T) *bridgeTestEnv {
	ctx, cancel := context.WithCancel(context.Background())
	env := &bridgeTestEnv{dev: sim.New(), cancel: cancel}
	hostConn, devConn := net.Pipe()
	d := dispatch.New(periph.New(env.dev), wire.Version{Major: 1, Minor: 2, Patch: 3})
	ch := host.NewChannel(hostConn)
	env.goRun(func() {
		d.Serve(ctx, devConn)
		devConn.Close()
	})
	env.goRun(func() {
		ch.Run(ctx)
		hostConn.Close()
	})

	clientEnd, serverEnd := newPacketPipes()
	env.conn = bridge.NewConn(clientEnd)
	env.goRun(func() { bridge.NewServer(ch).Serve(ctx, serverEnd) })
	env.goRun(func() { env.conn.Run(ctx) })
	t.Cleanup(env.stop)
	return env
}

func TestBridgeQuery(t *testing.T) {
	env := newBridgeTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ver, err := host.FirmwareVersion(ctx, env.conn)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", ver)

	freq, err := host.CPUFrequency(ctx, env.conn)
	require.NoError(t, err)
	assert.Equal(t, uint32(sim.DefaultCPUFrequency), freq)

	res, err := env.conn.Query(ctx, &wire.GpioOutputInit{Pin: 25})
	require.NoError(t, err)
	assert.Equal(t, wire.OK, res.Code)

	require.NoError(t, env.conn.Send(ctx, &wire.GpioOutputSet{Pin: 25, State: true}))
	level, err := host.QueryData(ctx, env.conn, &wire.GpioOutputGet{Pin: 25})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), level)

	res, err = env.conn.Query(ctx, &wire.PwmSetDutyCyclePercent{Pin: 25, Percent: 50})
	require.NoError(t, err)
	assert.Equal(t, wire.WrongPinState, res.Code)
}

func TestBridgeConcurrentQueries(t *testing.T) {
	env := newBridgeTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, periph.NumPins)
	for pin := 0; pin < periph.NumPins; pin++ {
		wg.Add(1)
		go func(pin int) {
			defer wg.Done()
			_, errs[pin] = host.QueryData(ctx, env.conn, &wire.GpioOutputInit{Pin: uint8(pin), Value: pin%2 == 1})
		}(pin)
	}
	wg.Wait()
	for pin, err := range errs {
		require.NoError(t, err, "pin %d", pin)
		level, ok := env.dev.OutputLevel(uint8(pin))
		require.True(t, ok, "pin %d", pin)
		assert.Equal(t, pin%2 == 1, level)
	}
}

func TestBridgeKeepsCommandOrder(t *testing.T) {
	env := newBridgeTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	futures := make([]*bridge.Future, periph.NumPins)
	for pin := 0; pin < periph.NumPins; pin++ {
		futures[pin] = env.conn.Do(&wire.GpioOutputInit{Pin: uint8(pin)})
		require.NoError(t, env.conn.Send(ctx, &wire.GpioOutputSet{Pin: uint8(pin), State: true}))
	}
	for pin, f := range futures {
		select {
		case res := <-f.ResultChan():
			require.NoError(t, res.Err, "pin %d", pin)
			assert.Equal(t, wire.OK, res.Code, "pin %d", pin)
		case <-ctx.Done():
			t.Fatalf("pin %d: no result", pin)
		}
	}
	// a query issued last is answered after every earlier command ran.
	_, err := host.QueryData(ctx, env.conn, &wire.Version{})
	require.NoError(t, err)
	for pin := 0; pin < periph.NumPins; pin++ {
		level, ok := env.dev.OutputLevel(uint8(pin))
		require.True(t, ok, "pin %d", pin)
		assert.True(t, level, "pin %d", pin)
	}
}

func TestUndecodableCommandGetsCommandErr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clientEnd, serverEnd := newPacketPipes()
	done := make(chan struct{})
	go func() {
		defer close(done)
		bridge.NewServer(nil).Serve(ctx, serverEnd)
	}()

	client := bridge.NewPipe(clientEnd)
	require.NoError(t, client.SendTyped(&msgs.Typed{Typed: pb.Typed{TypeId: msgs.GroupDevice | 0x7f, Sequence: 5}}))
	replies := make(chan *msgs.Typed, 1)
	client.Handler = bridge.HandleTypedFunc(func(_ context.Context, m msgs.Message, typed *msgs.Typed) error {
		if _, ok := m.(*msgs.CommandErr); ok {
			replies <- typed
		}
		return nil
	})
	go client.Run(ctx)
	select {
	case typed := <-replies:
		assert.Equal(t, uint32(5), typed.Sequence)
	case <-time.After(time.Second):
		t.Fatal("no reply")
	}
	cancel()
	<-done
}

type failingDevice struct{}

func (failingDevice) Send(context.Context, wire.Command) error { return host.ErrDisconnected }

func (failingDevice) Query(context.Context, wire.Command) (wire.Result, error) {
	return wire.Result{}, host.ErrDisconnected
}

func TestQueryErrorReturnsCommandErr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clientEnd, serverEnd := newPacketPipes()
	conn := bridge.NewConn(clientEnd)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		bridge.NewServer(failingDevice{}).Serve(ctx, serverEnd)
	}()
	go func() {
		defer wg.Done()
		conn.Run(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	qctx, qcancel := context.WithTimeout(ctx, 5*time.Second)
	defer qcancel()
	_, err := conn.Query(qctx, &wire.GpioOutputGet{Pin: 1})
	var cmdErr *msgs.CommandErr
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, host.ErrDisconnected.Error(), cmdErr.Error())
}

func TestConnExpiration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clientEnd, _ := newPacketPipes()
	conn := bridge.NewConn(clientEnd)
	conn.Expiration = 40 * time.Millisecond
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	select {
	case res := <-conn.Do(&wire.GetCpuFrequency{}).ResultChan():
		assert.True(t, errors.Is(res.Err, bridge.ErrExpired))
	case <-time.After(time.Second):
		t.Fatal("not expired")
	}
}

func TestConnDisconnect(t *testing.T) {
	clientEnd, serverEnd := newPacketPipes()
	conn := bridge.NewConn(clientEnd)
	conn.Expiration = 0
	f := conn.Do(&wire.GetCpuFrequency{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.Run(context.Background())
	}()
	serverEnd.Close()
	select {
	case res := <-f.ResultChan():
		assert.True(t, errors.Is(res.Err, host.ErrDisconnected))
	case <-time.After(time.Second):
		t.Fatal("pending command not failed")
	}
	<-done

	_, err := conn.Query(context.Background(), &wire.GetCpuFrequency{})
	assert.True(t, errors.Is(err, host.ErrDisconnected))
}
