package periph

import (
	"github.com/robotalks/copi/pkg/hal"
	"github.com/robotalks/copi/pkg/logx"
)

// PioLoadProgram installs prog into a block, replacing the program used by
// subsequent PioSmInit calls. State machines already running keep executing
// from instruction memory; nothing guards replacing their program.
func (c *Controller) PioLoadProgram(blockIndex uint8, prog *Program) (bool, error) {
	b, err := c.block(blockIndex)
	if err != nil {
		return false, err
	}
	if prog.Origin >= 0 {
		if err := checkRange("pio origin", uint8(prog.Origin), hal.PIOMemorySize); err != nil {
			return false, err
		}
	}
	loaded, err := b.hw.LoadProgram(prog)
	if err != nil {
		return false, err
	}
	b.program = &loaded
	return true, nil
}

// PioSmInit claims pin for a state machine running the loaded program
// of the block. The pin is used as side-set base and set to output.
func (c *Controller) PioSmInit(blockIndex, sm, pin uint8) (bool, error) {
	b, hw, err := c.stateMachine(blockIndex, sm)
	if err != nil {
		return false, err
	}
	p, err := c.pin(pin)
	if err != nil {
		return false, err
	}
	if p.state != Unowned || b.program == nil {
		return false, nil
	}
	if err := hw.Init(*b.program, pin); err != nil {
		return false, err
	}
	p.state, p.index = PioOwned, int(blockIndex)*NumStateMachines+int(sm)
	return true, nil
}

// PioSmSetEnable starts or stops a state machine.
func (c *Controller) PioSmSetEnable(blockIndex, sm uint8, enable bool) error {
	_, hw, err := c.stateMachine(blockIndex, sm)
	if err != nil {
		return err
	}
	hw.SetEnabled(enable)
	return nil
}

// PioSmPush writes a word to the TX FIFO without blocking.
// The word is dropped when the FIFO is full.
func (c *Controller) PioSmPush(blockIndex, sm uint8, word uint32) error {
	_, hw, err := c.stateMachine(blockIndex, sm)
	if err != nil {
		return err
	}
	if !hw.TryPush(word) {
		logx.Warningf("pio%d sm%d: tx fifo full, word dropped", blockIndex, sm)
	}
	return nil
}

// PioSmExecInstrUnchecked executes a raw instruction immediately.
// The instruction isn't validated and may leave the state machine stalled
// or running arbitrary code.
func (c *Controller) PioSmExecInstrUnchecked(blockIndex, sm uint8, instr uint16) error {
	_, hw, err := c.stateMachine(blockIndex, sm)
	if err != nil {
		return err
	}
	hw.Exec(instr)
	return nil
}

// LoadedProgram returns the program currently loaded in a block.
func (c *Controller) LoadedProgram(blockIndex uint8) (*hal.LoadedProgram, error) {
	b, err := c.block(blockIndex)
	if err != nil {
		return nil, err
	}
	return b.program, nil
}

func (c *Controller) block(index uint8) (*block, error) {
	if err := checkRange("pio block", index, NumPIOBlocks); err != nil {
		return nil, err
	}
	return &c.blocks[index], nil
}

func (c *Controller) stateMachine(blockIndex, sm uint8) (*block, hal.StateMachine, error) {
	b, err := c.block(blockIndex)
	if err != nil {
		return nil, nil, err
	}
	if err := checkRange("state machine", sm, NumStateMachines); err != nil {
		return nil, nil, err
	}
	return b, b.hw.StateMachine(sm), nil
}
