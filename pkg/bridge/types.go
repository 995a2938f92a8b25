// Package bridge carries device commands between the daemon owning the
// serial link and remote clients. Packets are msgs.Typed envelopes over any
// PacketReadWriter (MQTT, websocket or a length-prefixed stream).
package bridge

import (
	"context"

	fx "github.com/robotalks/copi/pkg/framework"
	"github.com/robotalks/copi/pkg/host"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// DeviceType is the type of devices served by the daemon.
const DeviceType = "copi"

// DeviceRef is a reference to a device exposed by a daemon.
type DeviceRef struct {
	// Type is the device type, DeviceType for now.
	Type string
	// ID is unique ID of the device.
	ID string
}

// Name retrieves the name from ref.
func (r DeviceRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates DeviceRef is valid.
func (r DeviceRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// DeviceMeta provides metadata of a device.
type DeviceMeta struct {
	Description string            `json:"description,omitempty"`
	Firmware    string            `json:"firmware,omitempty"`
	Port        string            `json:"port,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// DeviceInfo provides information of a device.
type DeviceInfo struct {
	Ref  DeviceRef
	Meta DeviceMeta
}

// Client is a connected device which must be Run to process replies.
type Client interface {
	host.Device
	fx.Runnable
}

// Connector is used by clients to reach devices exposed by daemons.
type Connector interface {
	// Discover enumerates registered devices.
	Discover(context.Context) ([]DeviceInfo, error)
	// Connect connects to the specified device.
	Connect(context.Context, DeviceRef) (Client, error)
}
