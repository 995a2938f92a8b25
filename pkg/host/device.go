package host

import (
	"context"
	"fmt"

	"github.com/robotalks/copi/pkg/wire"
)

// FirmwareVersion announces the host protocol version and returns the
// firmware version reported by the device.
func FirmwareVersion(ctx context.Context, d Device) (string, error) {
	res, err := QueryData(ctx, d, &wire.Version{
		Major: wire.ProtocolMajor,
		Minor: wire.ProtocolMinor,
		Patch: wire.ProtocolPatch,
	})
	if err != nil {
		return "", err
	}
	major, minor, patch := wire.UnpackVersion(res)
	return fmt.Sprintf("%d.%d.%d", major, minor, patch), nil
}

// CPUFrequency returns the system clock of the device in Hz.
func CPUFrequency(ctx context.Context, d Device) (uint32, error) {
	res, err := QueryData(ctx, d, &wire.GetCpuFrequency{})
	return uint32(res), err
}

// QueryData queries a command and folds a non-OK result code into the error.
func QueryData(ctx context.Context, d Device, cmd wire.Command) (uint64, error) {
	res, err := d.Query(ctx, cmd)
	if err != nil {
		return 0, err
	}
	if err = res.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", cmd.Tag(), err)
	}
	return res.Data, nil
}
