package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/copi/pkg/bridge"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector implements bridge.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// ParseMeta decodes a retained meta message. An empty payload means the
// device is gone.
func ParseMeta(topic string, payload []byte) (info bridge.DeviceInfo, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != TopicMeta || len(payload) == 0 {
		return
	}
	info.Ref = bridge.DeviceRef{Type: items[0], ID: items[1]}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("invalid meta of %s: %v", info.Ref.Name(), err)
	}
	return info, info.Ref.IsValid()
}

// Discover implements bridge.Connector. It collects retained meta
// messages until DiscoverTimeout.
func (c *Connector) Discover(ctx context.Context) ([]bridge.DeviceInfo, error) {
	q := NewQueue(c.options, c.topicPrefix)
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	defer q.Close()

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.NewTimer(dur)
	defer timeout.Stop()

	resCh := make(chan bridge.DeviceInfo, 16)
	doneCh := make(chan struct{})
	sub := q.Sub("+/+/"+TopicMeta, func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			select {
			case resCh <- info:
			case <-doneCh:
			}
		}
	})
	defer sub.Close()
	defer close(doneCh)

	var res []bridge.DeviceInfo
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-timeout.C:
			return res, nil
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

// Connect implements bridge.Connector.
func (c *Connector) Connect(ctx context.Context, ref bridge.DeviceRef) (bridge.Client, error) {
	q := NewQueue(c.options, c.topicPrefix)
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return &Conn{
		Conn:  bridge.NewConn(NewPacketReadWriter(q).ForClient(ref)),
		Queue: q,
	}, nil
}

// Conn is a bridge.Conn over MQTT.
type Conn struct {
	*bridge.Conn
	Queue *Queue
}

// Run implements Runnable. The client disconnects when it returns.
func (c *Conn) Run(ctx context.Context) error {
	defer c.Queue.Close()
	return c.Conn.Run(ctx)
}
