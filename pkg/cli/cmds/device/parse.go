package device

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/robotalks/copi/pkg/wire"
)

// Parser builds a command from shell arguments.
type Parser func(args []string) (wire.Command, error)

// ErrUsage indicates wrong number of arguments.
var ErrUsage = errors.New("usage")

func parseUint(name, s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return v, nil
}

// argParser reads positional arguments, keeping the first error.
type argParser struct {
	args []string
	err  error
}

func (p *argParser) next(name string) string {
	if p.err != nil {
		return ""
	}
	if len(p.args) == 0 {
		p.err = fmt.Errorf("%w: %s required", ErrUsage, name)
		return ""
	}
	arg := p.args[0]
	p.args = p.args[1:]
	return arg
}

func (p *argParser) uint(name string, bits int) uint64 {
	arg := p.next(name)
	if p.err != nil {
		return 0
	}
	v, err := parseUint(name, arg, bits)
	p.err = err
	return v
}

func (p *argParser) u8(name string) uint8   { return uint8(p.uint(name, 8)) }
func (p *argParser) u16(name string) uint16 { return uint16(p.uint(name, 16)) }
func (p *argParser) u32(name string) uint32 { return uint32(p.uint(name, 32)) }

// optU8 accepts "-" for absent.
func (p *argParser) optU8(name string) *uint8 {
	arg := p.next(name)
	if p.err != nil || arg == "-" {
		return nil
	}
	v, err := parseUint(name, arg, 8)
	if err != nil {
		p.err = err
		return nil
	}
	return wire.U8(uint8(v))
}

func (p *argParser) bool(name string) bool {
	arg := p.next(name)
	if p.err != nil {
		return false
	}
	switch strings.ToLower(arg) {
	case "1", "on", "high", "true":
		return true
	case "0", "off", "low", "false":
		return false
	}
	p.err = fmt.Errorf("invalid %s %q", name, arg)
	return false
}

func (p *argParser) optBool(name string) bool {
	if len(p.args) == 0 {
		return false
	}
	return p.bool(name)
}

func (p *argParser) done(cmd wire.Command) (wire.Command, error) {
	if p.err == nil && len(p.args) > 0 {
		p.err = fmt.Errorf("%w: unexpected %q", ErrUsage, p.args[0])
	}
	if p.err != nil {
		return nil, p.err
	}
	return cmd, nil
}

// Parsers maps shell command names to command builders.
var Parsers = map[string]Parser{
	"version": func(args []string) (wire.Command, error) {
		p := argParser{args: args}
		return p.done(&wire.Version{Major: wire.ProtocolMajor, Minor: wire.ProtocolMinor, Patch: wire.ProtocolPatch})
	},
	"freq": func(args []string) (wire.Command, error) {
		p := argParser{args: args}
		return p.done(&wire.GetCpuFrequency{})
	},
	"gpio.init": func(args []string) (wire.Command, error) {
		p := argParser{args: args}
		cmd := &wire.GpioOutputInit{Pin: p.u8("PIN")}
		cmd.Value = p.optBool("VALUE")
		return p.done(cmd)
	},
	"gpio.set": func(args []string) (wire.Command, error) {
		p := argParser{args: args}
		cmd := &wire.GpioOutputSet{Pin: p.u8("PIN")}
		cmd.State = p.bool("STATE")
		return p.done(cmd)
	},
	"gpio.get": func(args []string) (wire.Command, error) {
		p := argParser{args: args}
		return p.done(&wire.GpioOutputGet{Pin: p.u8("PIN")})
	},
	"pwm.init": func(args []string) (wire.Command, error) {
		p := argParser{args: args}
		cmd := &wire.PwmInit{Slice: p.u8("SLICE")}
		cmd.PinA = p.optU8("PIN_A")
		cmd.PinB = p.optU8("PIN_B")
		cmd.Divider = p.u8("DIV")
		cmd.CompareA = p.u16("CMP_A")
		cmd.CompareB = p.u16("CMP_B")
		cmd.Top = p.u16("TOP")
		return p.done(cmd)
	},
	"pwm.duty": func(args []string) (wire.Command, error) {
		p := argParser{args: args}
		cmd := &wire.PwmSetDutyCyclePercent{Pin: p.u8("PIN")}
		cmd.Percent = p.u8("PERCENT")
		return p.done(cmd)
	},
	"pio.sm.init": func(args []string) (wire.Command, error) {
		p := argParser{args: args}
		cmd := &wire.PioSmInit{Pio: p.u8("PIO")}
		cmd.Sm = p.u8("SM")
		cmd.Pin = p.u8("PIN")
		return p.done(cmd)
	},
	"pio.sm.enable": func(args []string) (wire.Command, error) {
		p := argParser{args: args}
		cmd := &wire.PioSmSetEnable{Pio: p.u8("PIO")}
		cmd.Sm = p.u8("SM")
		cmd.Enable = p.bool("ENABLE")
		return p.done(cmd)
	},
	"pio.sm.push": func(args []string) (wire.Command, error) {
		p := argParser{args: args}
		cmd := &wire.PioSmPush{Pio: p.u8("PIO")}
		cmd.Sm = p.u8("SM")
		cmd.Word = p.u32("WORD")
		return p.done(cmd)
	},
	"pio.sm.exec": func(args []string) (wire.Command, error) {
		p := argParser{args: args}
		cmd := &wire.PioSmExecInstr{Pio: p.u8("PIO")}
		cmd.Sm = p.u8("SM")
		cmd.Instr = p.u16("INSTR")
		return p.done(cmd)
	},
	"pio.load": parsePioLoad,
}

// parsePioLoad parses: [-origin N] [-wrap SRC:TGT] [-sideset BITS]
// [-sideset-opt] [-sideset-pindirs] [-v0] PIO INSTR...
func parsePioLoad(args []string) (wire.Command, error) {
	fs := flag.NewFlagSet("pio.load", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	origin := fs.Int("origin", -1, "fixed load offset")
	wrap := fs.String("wrap", "", "SRC:TGT")
	sideSetBits := fs.Uint("sideset", 0, "side-set bit count")
	sideSetOpt := fs.Bool("sideset-opt", false, "side-set is optional")
	sideSetPindirs := fs.Bool("sideset-pindirs", false, "side-set drives pin directions")
	v0 := fs.Bool("v0", false, "PIO version 0 program")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	p := argParser{args: fs.Args()}
	pio := p.u8("PIO")
	if p.err != nil {
		return nil, p.err
	}
	if len(p.args) == 0 {
		return nil, fmt.Errorf("%w: INSTR required", ErrUsage)
	}
	if len(p.args) > wire.MaxProgramWords {
		return nil, fmt.Errorf("program exceeds %d instructions", wire.MaxProgramWords)
	}
	words := make([]uint16, 0, len(p.args))
	for len(p.args) > 0 {
		words = append(words, p.u16("INSTR"))
	}
	if p.err != nil {
		return nil, p.err
	}
	cmd := wire.NewPioLoadProgram(pio, words)
	if *origin >= 0 {
		if *origin > 0xff {
			return nil, fmt.Errorf("invalid origin %d", *origin)
		}
		cmd.Origin = wire.U8(uint8(*origin))
	}
	cmd.WrapTarget, cmd.WrapSource = 0, uint8(len(words)-1)
	if *wrap != "" {
		items := strings.SplitN(*wrap, ":", 2)
		if len(items) != 2 {
			return nil, fmt.Errorf("invalid wrap %q", *wrap)
		}
		src, err := parseUint("wrap source", items[0], 8)
		if err != nil {
			return nil, err
		}
		tgt, err := parseUint("wrap target", items[1], 8)
		if err != nil {
			return nil, err
		}
		cmd.WrapSource, cmd.WrapTarget = uint8(src), uint8(tgt)
	}
	if *sideSetBits > 0xff {
		return nil, fmt.Errorf("invalid sideset %d", *sideSetBits)
	}
	cmd.SideSetBits = uint8(*sideSetBits)
	cmd.SideSetOptional = *sideSetOpt
	cmd.SideSetPindirs = *sideSetPindirs
	cmd.VersionV0 = *v0
	return cmd, nil
}
