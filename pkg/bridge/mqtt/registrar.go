package mqtt

import (
	"context"
	"encoding/json"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/copi/pkg/bridge"
)

// Registrar registers a device on the broker and serves its commands.
type Registrar struct {
	Queue  *Queue
	Info   bridge.DeviceInfo
	Server *bridge.Server

	metaJSON []byte
	rw       *ReadWriter
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info bridge.DeviceInfo, srv *bridge.Server) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := DeviceTopic(info.Ref, TopicMeta)
	opts.SetBinaryWill(topicPrefix+metaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("copi:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		Server:   srv,
		metaJSON: meta,
	}
	r.Queue.OnConnect = func(*Queue) { r.publishMeta(r.metaJSON) }
	r.rw = NewPacketReadWriter(r.Queue).ForDevice(info.Ref)
	return r, nil
}

// Name implements Named.
func (r *Registrar) Name() string {
	return "mqtt-registrar"
}

// Run implements Runnable. The meta is cleared when it returns.
func (r *Registrar) Run(ctx context.Context) error {
	token := r.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	defer r.Queue.Close()
	err := r.Server.Serve(ctx, r.rw)
	r.publishMeta(nil).Wait()
	return err
}

func (r *Registrar) publishMeta(meta []byte) paho.Token {
	glog.V(1).Infof("publish meta of %s", r.Info.Ref.Name())
	return r.Queue.PubWith(DeviceTopic(r.Info.Ref, TopicMeta), meta, 1, true)
}
