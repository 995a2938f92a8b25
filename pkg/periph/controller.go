// Package periph tracks ownership of pins and peripherals on the device.
//
// Every pin starts Unowned and is claimed by exactly one peripheral role.
// Claims are permanent. Resource conflicts are reported as false results,
// indices beyond the chip limits as *RangeError.
package periph

import (
	"github.com/robotalks/copi/pkg/hal"
	"github.com/robotalks/copi/pkg/logx"
	"github.com/robotalks/copi/pkg/slot"
)

// Chip limits.
const (
	NumPins          = hal.NumPins
	NumPIOBlocks     = hal.NumPIOBlocks
	NumStateMachines = hal.NumStateMachines

	MaxGpioOutputs = NumPins
	MaxPwmSlices   = hal.NumPWMSlices
)

// PinState is the role a pin is claimed for.
type PinState uint8

// Pin states.
const (
	Unowned PinState = iota
	GpioOutput
	GpioInput
	PwmOut
	PwmIn
	PioOwned
)

var pinStateNames = [...]string{"unowned", "gpio-out", "gpio-in", "pwm-out", "pwm-in", "pio"}

func (s PinState) String() string {
	if int(s) < len(pinStateNames) {
		return pinStateNames[s]
	}
	return "unknown"
}

// Program is a PIO program.
type Program = hal.Program

// PwmConfig configures a PWM slice.
type PwmConfig = hal.PWMConfig

type pinInfo struct {
	state PinState
	// index into the outputs or pwms pool. PioOwned pins carry the
	// state machine ordinal block*NumStateMachines+sm instead.
	index int
}

type block struct {
	hw      hal.PIOBlock
	program *hal.LoadedProgram
}

// Controller owns the peripherals of one device.
// It's not safe for concurrent use.
type Controller struct {
	dev     hal.Device
	pins    [NumPins]pinInfo
	outputs *slot.Slot[hal.Output]
	pwms    *slot.Slot[hal.PWM]
	blocks  [NumPIOBlocks]block
}

// New creates a Controller over the device.
func New(dev hal.Device) *Controller {
	c := &Controller{
		dev:     dev,
		outputs: slot.New[hal.Output](MaxGpioOutputs),
		pwms:    slot.New[hal.PWM](MaxPwmSlices),
	}
	for n := range c.blocks {
		c.blocks[n].hw = dev.PIO(uint8(n))
	}
	return c
}

// CPUFrequency returns the system clock in Hz.
func (c *Controller) CPUFrequency() uint32 {
	return c.dev.CPUFrequency()
}

// PinState returns the state of a pin.
func (c *Controller) PinState(pin uint8) (PinState, error) {
	p, err := c.pin(pin)
	if err != nil {
		return Unowned, err
	}
	return p.state, nil
}

// GpioOutputInit claims pin as a digital output driven to value.
func (c *Controller) GpioOutputInit(pin uint8, value bool) (bool, error) {
	p, err := c.pin(pin)
	if err != nil {
		return false, err
	}
	if p.state != Unowned || c.outputs.Len() >= c.outputs.Cap() {
		return false, nil
	}
	out, err := c.dev.Output(pin, value)
	if err != nil {
		return false, err
	}
	index, ok := c.outputs.Add(out)
	if !ok {
		return false, nil
	}
	p.state, p.index = GpioOutput, index
	return true, nil
}

// GpioOutputSet drives a claimed output.
func (c *Controller) GpioOutputSet(pin uint8, value bool) (bool, error) {
	out, err := c.output(pin)
	if out == nil || err != nil {
		return false, err
	}
	out.Set(value)
	return true, nil
}

// GpioOutputGet reads back the level of a claimed output.
func (c *Controller) GpioOutputGet(pin uint8) (level bool, ok bool, err error) {
	out, err := c.output(pin)
	if out == nil || err != nil {
		return false, false, err
	}
	return out.Get(), true, nil
}

// PwmInit configures a slice and claims the requested pins as PWM outputs.
// A requested pin that is already claimed is skipped and the slice is
// configured with the remaining pin, the call still succeeds. It fails
// only when no more slices can be registered.
func (c *Controller) PwmInit(cfg PwmConfig) (bool, error) {
	if err := checkRange("pwm slice", cfg.Slice, MaxPwmSlices); err != nil {
		return false, err
	}
	var bound [2]*uint8
	for n, pin := range [2]*uint8{cfg.PinA, cfg.PinB} {
		if pin == nil {
			continue
		}
		p, err := c.pin(*pin)
		if err != nil {
			return false, err
		}
		if p.state != Unowned || (bound[0] != nil && *bound[0] == *pin) {
			logx.Warningf("pwm slice %d: pin %d is %s, skipped", cfg.Slice, *pin, p.state)
			continue
		}
		bound[n] = pin
	}
	if c.pwms.Len() >= c.pwms.Cap() {
		return false, nil
	}
	cfg.PinA, cfg.PinB = bound[0], bound[1]
	pwm, err := c.dev.PWM(cfg)
	if err != nil {
		return false, err
	}
	index, ok := c.pwms.Add(pwm)
	if !ok {
		return false, nil
	}
	for _, pin := range cfg.Pins() {
		c.pins[pin] = pinInfo{state: PwmOut, index: index}
	}
	return true, nil
}

// PwmSetDutyCyclePercent sets the duty cycle of the slice owning pin.
func (c *Controller) PwmSetDutyCyclePercent(pin uint8, percent uint8) (bool, error) {
	p, err := c.pin(pin)
	if err != nil {
		return false, err
	}
	if p.state != PwmOut {
		return false, nil
	}
	pwm, ok := c.pwms.Get(p.index)
	if !ok {
		return false, nil
	}
	if err := pwm.SetDutyCyclePercent(percent); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) pin(pin uint8) (*pinInfo, error) {
	if err := checkRange("pin", pin, NumPins); err != nil {
		return nil, err
	}
	return &c.pins[pin], nil
}

func (c *Controller) output(pin uint8) (hal.Output, error) {
	p, err := c.pin(pin)
	if err != nil || p.state != GpioOutput {
		return nil, err
	}
	out, _ := c.outputs.Get(p.index)
	return out, nil
}
