// Package dispatch executes requests on the device.
package dispatch

import (
	"context"
	"errors"
	"io"

	"github.com/robotalks/copi/pkg/hal"
	"github.com/robotalks/copi/pkg/link"
	"github.com/robotalks/copi/pkg/logx"
	"github.com/robotalks/copi/pkg/periph"
	"github.com/robotalks/copi/pkg/wire"
)

// FirmwareVersion is reported by devices built from this module.
var FirmwareVersion = wire.Version{Major: 0, Minor: 1, Patch: 0}

// Poster queues an outbound payload without blocking.
type Poster interface {
	Post(payload []byte) error
}

// Dispatcher decodes requests, runs them on the Controller and posts
// responses for requests with nonzero ids.
type Dispatcher struct {
	Controller *periph.Controller
	Out        Poster
	// Firmware is the version reported to the host.
	Firmware wire.Version
}

// New creates a Dispatcher.
func New(ctrl *periph.Controller, firmware wire.Version) *Dispatcher {
	return &Dispatcher{Controller: ctrl, Firmware: firmware}
}

// Serve runs the protocol over rw until ctx is done or the stream fails.
func (d *Dispatcher) Serve(ctx context.Context, rw io.ReadWriter) error {
	l := link.New(rw)
	l.Handler = d
	d.Out = l
	return l.Run(ctx)
}

// HandleFrame implements link.FrameHandler.
func (d *Dispatcher) HandleFrame(ctx context.Context, payload []byte) {
	req, err := wire.DecodeRequest(payload)
	if err != nil {
		logx.Warningf("drop malformed request: %v", err)
		return
	}
	res := d.Execute(req.Command)
	if req.ID == 0 {
		return
	}
	data, err := (&wire.Response{ID: req.ID, Result: res}).MarshalBinary()
	if err == nil {
		err = d.Out.Post(data)
	}
	if err != nil {
		logx.Errorf("respond %d failed: %v", req.ID, err)
	}
}

// Execute runs one command.
func (d *Dispatcher) Execute(cmd wire.Command) wire.Result {
	if logx.V(1) {
		logx.Infof("%s %+v", cmd.Tag(), cmd)
	}
	c := d.Controller
	switch cmd := cmd.(type) {
	case *wire.Version:
		logx.Infof("host protocol %d.%d.%d", cmd.Major, cmd.Minor, cmd.Patch)
		return ok(wire.PackVersion(d.Firmware.Major, d.Firmware.Minor, d.Firmware.Patch))
	case *wire.GetCpuFrequency:
		return ok(uint64(c.CPUFrequency()))
	case *wire.GpioOutputInit:
		return result(c.GpioOutputInit(cmd.Pin, cmd.Value))
	case *wire.GpioOutputSet:
		return result(c.GpioOutputSet(cmd.Pin, cmd.State))
	case *wire.GpioOutputGet:
		level, succeeded, err := c.GpioOutputGet(cmd.Pin)
		res := result(succeeded, err)
		if level && res.Code == wire.OK {
			res.Data = 1
		}
		return res
	case *wire.PwmInit:
		return result(c.PwmInit(periph.PwmConfig{
			Slice:    cmd.Slice,
			PinA:     cmd.PinA,
			PinB:     cmd.PinB,
			Divider:  cmd.Divider,
			CompareA: cmd.CompareA,
			CompareB: cmd.CompareB,
			Top:      cmd.Top,
		}))
	case *wire.PwmSetDutyCyclePercent:
		return result(c.PwmSetDutyCyclePercent(cmd.Pin, cmd.Percent))
	case *wire.PioLoadProgram:
		prog, err := ProgramOf(cmd)
		if err != nil {
			return result(false, err)
		}
		return result(c.PioLoadProgram(cmd.Pio, prog))
	case *wire.PioSmInit:
		return result(c.PioSmInit(cmd.Pio, cmd.Sm, cmd.Pin))
	case *wire.PioSmSetEnable:
		return result(true, c.PioSmSetEnable(cmd.Pio, cmd.Sm, cmd.Enable))
	case *wire.PioSmPush:
		return result(true, c.PioSmPush(cmd.Pio, cmd.Sm, cmd.Word))
	case *wire.PioSmExecInstr:
		return result(true, c.PioSmExecInstrUnchecked(cmd.Pio, cmd.Sm, cmd.Instr))
	}
	logx.Warningf("unsupported command %s", cmd.Tag())
	return wire.Result{Code: wire.UnknownError}
}

// ProgramOf converts a load request into a Program. An origin outside
// instruction memory is a *periph.RangeError.
func ProgramOf(cmd *wire.PioLoadProgram) (*periph.Program, error) {
	prog := &periph.Program{
		Instructions: cmd.Words(),
		Origin:       -1,
		WrapSource:   cmd.WrapSource,
		WrapTarget:   cmd.WrapTarget,
		SideSet: hal.SideSet{
			Optional: cmd.SideSetOptional,
			Bits:     cmd.SideSetBits,
			Pindirs:  cmd.SideSetPindirs,
		},
		Version: hal.PIOVersionV1,
	}
	if origin := cmd.Origin; origin != nil {
		if int(*origin) >= hal.PIOMemorySize {
			return nil, &periph.RangeError{What: "pio origin", Index: int(*origin), Limit: hal.PIOMemorySize}
		}
		prog.Origin = int8(*origin)
	}
	if cmd.VersionV0 {
		prog.Version = hal.PIOVersionV0
	}
	return prog, nil
}

func ok(data uint64) wire.Result {
	return wire.Result{Code: wire.OK, Data: data}
}

func result(succeeded bool, err error) wire.Result {
	switch {
	case errors.Is(err, periph.ErrOutOfRange), errors.Is(err, hal.ErrDutyCycleRange):
		logx.Warningf("%v", err)
		return wire.Result{Code: wire.OutOfRange}
	case err != nil:
		logx.Warningf("%v", err)
		return wire.Result{Code: wire.UnknownError}
	case !succeeded:
		return wire.Result{Code: wire.WrongPinState}
	}
	return ok(0)
}
