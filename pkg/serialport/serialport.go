// Package serialport finds and opens the serial port of the device.
package serialport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// USB identity of the device.
const (
	DefaultVID = 0x9527
	DefaultPID = 0xacdc

	DefaultBaudRate = 115200
)

// AutoDetect selects the first port matching the USB identity.
const AutoDetect = "auto"

const tcpPrefix = "tcp://"

// ErrDeviceNotFound indicates no port matches the USB identity.
var ErrDeviceNotFound = errors.New("device not found")

// PortInfo describes a serial port.
type PortInfo struct {
	Name    string `json:"name"`
	USB     bool   `json:"usb"`
	VID     uint16 `json:"vid"`
	PID     uint16 `json:"pid"`
	Serial  string `json:"serial,omitempty"`
	Product string `json:"product,omitempty"`
}

// Matches reports whether the port is a USB port with the given identity.
func (p *PortInfo) Matches(vid, pid uint16) bool {
	return p.USB && p.VID == vid && p.PID == pid
}

// List enumerates serial ports.
func List() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{Name: d.Name, USB: d.IsUSB, Serial: d.SerialNumber, Product: d.Product}
		if d.IsUSB {
			info.VID = parseID(d.VID)
			info.PID = parseID(d.PID)
		}
		ports = append(ports, info)
	}
	return ports, nil
}

// Match returns the first port with the given identity.
func Match(ports []PortInfo, vid, pid uint16) (PortInfo, error) {
	for _, p := range ports {
		if p.Matches(vid, pid) {
			return p, nil
		}
	}
	return PortInfo{}, fmt.Errorf("%w: %04x:%04x", ErrDeviceNotFound, vid, pid)
}

// Find returns the name of the first port with the given identity.
func Find(vid, pid uint16) (string, error) {
	ports, err := List()
	if err != nil {
		return "", err
	}
	p, err := Match(ports, vid, pid)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// Open opens a port by name. AutoDetect or an empty name looks up
// the default USB identity, tcp://host:port connects to a simulated device.
func Open(name string) (io.ReadWriteCloser, error) {
	if name == "" || name == AutoDetect {
		found, err := Find(DefaultVID, DefaultPID)
		if err != nil {
			return nil, err
		}
		name = found
	}
	if strings.HasPrefix(name, tcpPrefix) {
		glog.Infof("connecting %s", name)
		return net.Dial("tcp", strings.TrimPrefix(name, tcpPrefix))
	}
	glog.Infof("opening %s", name)
	port, err := serial.Open(name, &serial.Mode{BaudRate: DefaultBaudRate})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return port, nil
}

// ParseID parses a hex USB vendor or product id.
func ParseID(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	return uint16(v), err
}

func parseID(s string) uint16 {
	v, err := ParseID(s)
	if err != nil {
		glog.V(2).Infof("invalid usb id %q: %v", s, err)
	}
	return v
}
