// Package daemon configures the daemon owning the serial link.
package daemon

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/copi/pkg/bridge"
	"github.com/robotalks/copi/pkg/bridge/mqtt"
	"github.com/robotalks/copi/pkg/bridge/stream"
	"github.com/robotalks/copi/pkg/bridge/websocket"
	"github.com/robotalks/copi/pkg/env"
	fx "github.com/robotalks/copi/pkg/framework"
	"github.com/robotalks/copi/pkg/host"
	"github.com/robotalks/copi/pkg/serialport"
)

// Config provides options of the daemon.
type Config struct {
	// Device is a serial port, serialport.AutoDetect or tcp://host:port
	// of a simulated device.
	Device string
	VID    string
	PID    string

	Info bridge.DeviceInfo

	// MQTTBrokerURL enables registration on a broker when not empty,
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// WebsocketAddr enables the websocket bridge when not empty.
	WebsocketAddr string
	// StreamAddr enables the TCP stream bridge when not empty.
	StreamAddr string

	// ProbeTimeout bounds the firmware version query at startup.
	ProbeTimeout time.Duration
}

var defaultConfig = Config{
	Device:        serialport.AutoDetect,
	VID:           fmt.Sprintf("%04x", serialport.DefaultVID),
	PID:           fmt.Sprintf("%04x", serialport.DefaultPID),
	Info:          bridge.DeviceInfo{Ref: bridge.DeviceRef{Type: bridge.DeviceType}},
	WebsocketAddr: ":8899",
	ProbeTimeout:  2 * time.Second,
}

func init() {
	if val := os.Getenv("COPI_DEVICE"); val != "" {
		defaultConfig.Device = val
	}
	if val := os.Getenv("COPI_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("COPI_LISTEN"); val != "" {
		defaultConfig.WebsocketAddr = val
	}
	if val := os.Getenv("COPI_STREAM_LISTEN"); val != "" {
		defaultConfig.StreamAddr = val
	}
	if val := os.Getenv("COPI_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Serial port, auto, or tcp://host:port")
	flag.StringVar(&defaultConfig.VID, "vid", defaultConfig.VID, "USB vendor id used by auto")
	flag.StringVar(&defaultConfig.PID, "pid", defaultConfig.PID, "USB product id used by auto")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Device ID, defaults to machine id")
	flag.StringVar(&defaultConfig.Info.Meta.Description, "desc", defaultConfig.Info.Meta.Description, "Device description")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.WebsocketAddr, "listen", defaultConfig.WebsocketAddr, "Websocket listen address")
	flag.StringVar(&defaultConfig.StreamAddr, "stream-listen", defaultConfig.StreamAddr, "TCP stream listen address")
	flag.DurationVar(&defaultConfig.ProbeTimeout, "probe-timeout", defaultConfig.ProbeTimeout, "Firmware version query timeout")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// OpenDevice opens the configured device.
func (c *Config) OpenDevice() (io.ReadWriteCloser, error) {
	if c.Device != "" && c.Device != serialport.AutoDetect {
		return serialport.Open(c.Device)
	}
	vid, err := serialport.ParseID(c.VID)
	if err != nil {
		return nil, fmt.Errorf("invalid vid %q: %w", c.VID, err)
	}
	pid, err := serialport.ParseID(c.PID)
	if err != nil {
		return nil, fmt.Errorf("invalid pid %q: %w", c.PID, err)
	}
	name, err := serialport.Find(vid, pid)
	if err != nil {
		return nil, err
	}
	c.Info.Meta.Port = name
	return serialport.Open(name)
}

// Env is the running daemon.
type Env struct {
	Config  *Config
	Port    io.ReadWriteCloser
	Channel *host.Channel
	Bridge  *bridge.Server
}

// NewEnv opens the device and creates Env.
func (c *Config) NewEnv() (*Env, error) {
	if c.Info.Ref.ID == "" {
		c.Info.Ref.ID = env.MachineID()
	}
	if c.Info.Meta.Port == "" && c.Device != serialport.AutoDetect {
		c.Info.Meta.Port = c.Device
	}
	port, err := c.OpenDevice()
	if err != nil {
		return nil, err
	}
	ch := host.NewChannel(port)
	return &Env{
		Config:  c,
		Port:    port,
		Channel: ch,
		Bridge:  bridge.NewServer(ch),
	}, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// Start runs the channel, probes the firmware and starts the enabled bridges.
func (e *Env) Start(r *fx.Runner) error {
	r.Go(fx.NamedRun(e.Channel.Name(), fx.RunnableFunc(func(ctx context.Context) error {
		defer e.Port.Close()
		return e.Channel.Run(ctx)
	})))

	ctx, cancel := context.WithTimeout(r.Context(), e.Config.ProbeTimeout)
	ver, err := host.FirmwareVersion(ctx, e.Channel)
	cancel()
	if err != nil {
		glog.Warningf("firmware version unknown: %v", err)
	} else {
		glog.Infof("device %s firmware %s", e.Config.Info.Ref.Name(), ver)
		e.Config.Info.Meta.Firmware = ver
	}

	if addr := e.Config.WebsocketAddr; addr != "" {
		r.Go(&websocket.Server{Addr: addr, Bridge: e.Bridge})
	}
	if addr := e.Config.StreamAddr; addr != "" {
		r.Go(&stream.Server{Addr: addr, Bridge: e.Bridge})
	}
	if brokerURL := e.Config.MQTTBrokerURL; brokerURL != "" {
		reg, err := mqtt.NewRegistrar(brokerURL, e.Config.Info, e.Bridge)
		if err != nil {
			return fmt.Errorf("create MQTT registrar: %w", err)
		}
		r.Go(reg)
	}
	return nil
}
