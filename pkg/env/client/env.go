// Package client configures how tools reach a device.
package client

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/copi/pkg/bridge"
	"github.com/robotalks/copi/pkg/bridge/mqtt"
	"github.com/robotalks/copi/pkg/bridge/stream"
	"github.com/robotalks/copi/pkg/bridge/websocket"
	"github.com/robotalks/copi/pkg/host"
	"github.com/robotalks/copi/pkg/serialport"
)

// ErrNoDevice indicates discovery found no device.
var ErrNoDevice = errors.New("no device discovered")

// Config provides options to reach a device.
type Config struct {
	Ref bridge.DeviceRef

	// URL locates the device:
	//   ws://host:8899/ws      websocket bridge of a daemon
	//   tcp://host:port        stream bridge of a daemon
	//   mqtt://host:port/pfx   daemon registered on a broker, see Ref
	//   serial:auto, serial:///dev/ttyACM0
	//                          the device itself, without a daemon
	URL string
}

var defaultConfig = Config{
	Ref: bridge.DeviceRef{Type: bridge.DeviceType},
	URL: "ws://localhost:8899" + websocket.DefaultPath,
}

func init() {
	if val := os.Getenv("COPI_URL"); val != "" {
		defaultConfig.URL = val
	}
	if val := os.Getenv("COPI_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.URL, "url", defaultConfig.URL, "Device URL (ws://, tcp://, mqtt://, serial:)")
	flag.StringVar(&defaultConfig.Ref.ID, "id", defaultConfig.Ref.ID, "Device ID when connecting over MQTT")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector for discovery.
func (c *Config) NewConnector() (bridge.Connector, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "mqtt", "mqtts":
		return mqtt.NewConnector(c.URL)
	default:
		return nil, fmt.Errorf("discovery unsupported for scheme %q", u.Scheme)
	}
}

// Connect reaches the device. The returned Client must be Run.
func (c *Config) Connect(ctx context.Context) (bridge.Client, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
		rw, err := websocket.Dial(c.URL)
		if err != nil {
			return nil, err
		}
		return bridge.NewConn(rw), nil
	case "tcp":
		rw, err := stream.Dial(u.Host)
		if err != nil {
			return nil, err
		}
		return bridge.NewConn(rw), nil
	case "mqtt", "mqtts":
		return c.connectMQTT(ctx)
	case "serial":
		port, err := serialport.Open(serialPath(u))
		if err != nil {
			return nil, err
		}
		return &directClient{Channel: host.NewChannel(port), port: port}, nil
	}
	return nil, fmt.Errorf("unknown URL scheme: %q", u.Scheme)
}

// MustConnect connects or fails.
func (c *Config) MustConnect(ctx context.Context) bridge.Client {
	cli, err := c.Connect(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return cli
}

func (c *Config) connectMQTT(ctx context.Context) (bridge.Client, error) {
	connector, err := mqtt.NewConnector(c.URL)
	if err != nil {
		return nil, err
	}
	ref := c.Ref
	if ref.ID == "" {
		infos, err := connector.Discover(ctx)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			if info.Ref.Type == ref.Type {
				ref = info.Ref
				break
			}
		}
		if ref.ID == "" {
			return nil, ErrNoDevice
		}
	}
	return connector.Connect(ctx, ref)
}

func serialPath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	if u.Path != "" {
		return u.Path
	}
	return u.Host
}

type directClient struct {
	*host.Channel
	port interface{ Close() error }
}

// Run implements Runnable.
func (c *directClient) Run(ctx context.Context) error {
	defer c.port.Close()
	return c.Channel.Run(ctx)
}
