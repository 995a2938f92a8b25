package daemon

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/copi/pkg/dispatch"
	fx "github.com/robotalks/copi/pkg/framework"
	"github.com/robotalks/copi/pkg/hal/sim"
	"github.com/robotalks/copi/pkg/host"
	"github.com/robotalks/copi/pkg/periph"
	"github.com/robotalks/copi/pkg/wire"
)

func serveSimDevice(t *testing.T, ctx context.Context) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		dispatch.New(periph.New(sim.New()), dispatch.FirmwareVersion).Serve(ctx, conn)
	}()
	return "tcp://" + ln.Addr().String()
}

func TestStartProbesFirmware(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conf := NewConfig()
	conf.Device = serveSimDevice(t, ctx)
	conf.Info.Ref.ID = "bench"
	conf.WebsocketAddr = ""
	conf.StreamAddr = ""
	conf.MQTTBrokerURL = ""

	e, err := conf.NewEnv()
	require.NoError(t, err)
	assert.Equal(t, conf.Device, e.Config.Info.Meta.Port)

	r := fx.NewRunnerWith(ctx)
	require.NoError(t, e.Start(r))
	v := dispatch.FirmwareVersion
	assert.Equal(t, fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch), e.Config.Info.Meta.Firmware)

	res, err := e.Bridge.Device.Query(ctx, &wire.GpioOutputInit{Pin: 3, Value: true})
	require.NoError(t, err)
	assert.Equal(t, wire.OK, res.Code)
	level, err := host.QueryData(ctx, e.Channel, &wire.GpioOutputGet{Pin: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 1, level)

	r.Stop()
	doneCh := make(chan struct{})
	go func() {
		r.Wait()
		close(doneCh)
	}()
	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("daemon didn't stop")
	}
}

func TestOpenDeviceInvalidID(t *testing.T) {
	conf := NewConfig()
	conf.Device = "auto"
	conf.VID = "xyz"
	_, err := conf.OpenDevice()
	assert.Error(t, err)
}
