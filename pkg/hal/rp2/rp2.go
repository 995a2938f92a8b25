//go:build rp2350

// Package rp2 implements hal.Device on the RP2350 with TinyGo.
package rp2

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/volatile"
	"unsafe"

	pio "github.com/tinygo-org/pio/rp2-pio"

	"github.com/robotalks/copi/pkg/hal"
)

// Device is the chip the firmware runs on.
type Device struct {
	blocks [hal.NumPIOBlocks]*pioBlock
}

// New creates the Device.
func New() *Device {
	d := &Device{}
	for n, p := range []*pio.PIO{pio.PIO0, pio.PIO1, pio.PIO2} {
		d.blocks[n] = &pioBlock{pio: p, mode: pioPinModes[n]}
	}
	return d
}

// Output implements hal.Device.
func (d *Device) Output(pin uint8, level bool) (hal.Output, error) {
	p := machine.Pin(pin)
	p.Set(level)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Set(level)
	return output(p), nil
}

// PWM implements hal.Device.
func (d *Device) PWM(cfg hal.PWMConfig) (hal.PWM, error) {
	group := pwmGroupBySlice(cfg.Slice)
	if group == nil {
		return nil, errors.New("invalid pwm slice")
	}
	divider := uint64(cfg.Divider)
	if divider == 0 {
		divider = 1
	}
	period := (uint64(cfg.Top) + 1) * divider * 1e9 / uint64(machine.CPUFrequency())
	if err := group.Configure(machine.PWMConfig{Period: period}); err != nil {
		return nil, err
	}
	// Configure picks its own divider for the period, so the requested
	// divider and top are written afterwards.
	sliceRegisters(cfg.Slice).DIV.Set(cfg.ClockDiv())
	group.SetTop(uint32(cfg.Top))
	s := &pwmSlice{group: group, top: cfg.Top}
	for _, pin := range cfg.Pins() {
		ch, err := group.Channel(machine.Pin(pin))
		if err != nil {
			return nil, err
		}
		s.channels = append(s.channels, ch)
	}
	for _, ch := range s.channels {
		compare := cfg.CompareA
		if ch == 1 {
			compare = cfg.CompareB
		}
		group.Set(ch, uint32(compare))
	}
	group.Enable(true)
	return s, nil
}

// PIO implements hal.Device.
func (d *Device) PIO(block uint8) hal.PIOBlock {
	return d.blocks[block]
}

// CPUFrequency implements hal.Device.
func (d *Device) CPUFrequency() uint32 {
	return machine.CPUFrequency()
}

type output machine.Pin

func (o output) Set(level bool) {
	machine.Pin(o).Set(level)
}

func (o output) Get() bool {
	return machine.Pin(o).Get()
}

type pwmGroup interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	SetTop(top uint32)
	Set(channel uint8, value uint32)
	Enable(enable bool)
}

func pwmGroupBySlice(slice uint8) pwmGroup {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	case 7:
		return machine.PWM7
	}
	return nil
}

// pwmRegisters is the register block of one PWM slice.
type pwmRegisters struct {
	CSR volatile.Register32
	DIV volatile.Register32
	CTR volatile.Register32
	CC  volatile.Register32
	TOP volatile.Register32
}

func sliceRegisters(slice uint8) *pwmRegisters {
	return (*pwmRegisters)(unsafe.Add(unsafe.Pointer(rp.PWM), uintptr(slice)*unsafe.Sizeof(pwmRegisters{})))
}

type pwmSlice struct {
	group    pwmGroup
	top      uint16
	channels []uint8
}

func (s *pwmSlice) SetDutyCyclePercent(percent uint8) error {
	duty, err := hal.DutyCycle(s.top, percent)
	if err != nil {
		return err
	}
	s.group.Set(0, uint32(duty))
	s.group.Set(1, uint32(duty))
	return nil
}
