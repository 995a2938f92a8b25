// Package hal abstracts the peripherals of the microcontroller.
//
// Implementations are not safe for concurrent use unless stated; the
// peripheral controller owns them from a single loop.
package hal

import (
	"errors"
	"fmt"
)

// Chip limits.
const (
	NumPins          = 30
	NumPWMSlices     = 8
	NumPIOBlocks     = 3
	NumStateMachines = 4
	PIOMemorySize    = 32
)

var (
	// ErrDutyCycleRange indicates a duty cycle percentage above 100.
	ErrDutyCycleRange = errors.New("duty cycle out of range")
	// ErrOutOfProgramSpace indicates the PIO instruction memory is full.
	ErrOutOfProgramSpace = errors.New("out of program space")
)

// Device exposes the peripherals of one chip.
type Device interface {
	// Output configures pin as a digital output driven to level.
	Output(pin uint8, level bool) (Output, error)
	// PWM configures a PWM slice and routes the given pins to it.
	PWM(cfg PWMConfig) (PWM, error)
	// PIO returns a PIO block, block < NumPIOBlocks.
	PIO(block uint8) PIOBlock
	// CPUFrequency returns the system clock in Hz.
	CPUFrequency() uint32
}

// Output is a digital output pin.
type Output interface {
	Set(level bool)
	Get() bool
}

// PWMConfig configures one PWM slice.
type PWMConfig struct {
	Slice    uint8
	PinA     *uint8
	PinB     *uint8
	Divider  uint8
	CompareA uint16
	CompareB uint16
	Top      uint16
}

// ClockDiv returns the slice DIV register value: the integer divider in
// bits 11:4 with no fraction. Divider 0 is taken as 1.
func (c *PWMConfig) ClockDiv() uint32 {
	if c.Divider == 0 {
		return 1 << 4
	}
	return uint32(c.Divider) << 4
}

// Pins returns the present pins, A first.
func (c *PWMConfig) Pins() []uint8 {
	var pins []uint8
	if c.PinA != nil {
		pins = append(pins, *c.PinA)
	}
	if c.PinB != nil {
		pins = append(pins, *c.PinB)
	}
	return pins
}

// PWM is a configured PWM slice.
type PWM interface {
	// SetDutyCyclePercent sets both channels to percent of the period.
	SetDutyCyclePercent(percent uint8) error
}

// DutyCycle converts percent to a compare value for top.
func DutyCycle(top uint16, percent uint8) (uint16, error) {
	if percent > 100 {
		return 0, ErrDutyCycleRange
	}
	duty := (uint32(top) + 1) * uint32(percent) / 100
	if duty > 0xffff {
		duty = 0xffff
	}
	return uint16(duty), nil
}

// PIOVersion selects the PIO instruction set.
type PIOVersion uint8

// PIO versions.
const (
	PIOVersionV0 PIOVersion = iota
	PIOVersionV1
)

// SideSet describes the side-set configuration of a program.
type SideSet struct {
	Optional bool
	// Bits includes the enable bit when Optional.
	Bits    uint8
	Pindirs bool
}

// Program is an assembled PIO program.
type Program struct {
	Instructions []uint16
	// Origin is the required load offset, -1 when relocatable.
	Origin     int8
	WrapSource uint8
	WrapTarget uint8
	SideSet    SideSet
	Version    PIOVersion
}

func (p *Program) String() string {
	return fmt.Sprintf("program(%d instrs, origin %d, wrap %d..%d)",
		len(p.Instructions), p.Origin, p.WrapTarget, p.WrapSource)
}

// LoadedProgram is a Program placed in instruction memory.
type LoadedProgram struct {
	*Program
	Offset uint8
}

// PIOBlock is one PIO block.
type PIOBlock interface {
	// LoadProgram writes a program into instruction memory.
	LoadProgram(p *Program) (LoadedProgram, error)
	// StateMachine returns a state machine, sm < NumStateMachines.
	StateMachine(sm uint8) StateMachine
}

// StateMachine is a PIO state machine.
type StateMachine interface {
	// Init applies prog with pin as side-set base and sets the pin direction to output.
	Init(prog LoadedProgram, pin uint8) error
	SetEnabled(enabled bool)
	// TryPush writes to the TX FIFO, returns false when it's full.
	TryPush(word uint32) bool
	// Exec executes an instruction immediately.
	Exec(instr uint16)
}
