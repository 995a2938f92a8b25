//go:build rp2350

// The firmware serves host commands on the RP2350.
//
// Build with TinyGo:
//
//	tinygo flash -target pico2 ./cmd/firmware
//
// The link runs over USB CDC by default. With
// -ldflags "-X main.transport=uart" it runs over UART0 (GP0/GP1) and the
// logs go to USB instead.
package main

import (
	"context"
	"io"
	"machine"
	"time"

	"github.com/jangala-dev/tinygo-uartx/uartx"

	"github.com/robotalks/copi/pkg/dispatch"
	"github.com/robotalks/copi/pkg/hal/rp2"
	"github.com/robotalks/copi/pkg/logx"
	"github.com/robotalks/copi/pkg/periph"
)

const uartBaudRate = 115200

var transport = "usb"

// usbPort blocks reads on machine.Serial until data arrives.
type usbPort struct {
	serial machine.Serialer
}

func (p usbPort) Read(b []byte) (int, error) {
	for p.serial.Buffered() == 0 {
		time.Sleep(time.Millisecond)
	}
	n := 0
	for n < len(b) && p.serial.Buffered() > 0 {
		c, err := p.serial.ReadByte()
		if err != nil {
			break
		}
		b[n] = c
		n++
	}
	return n, nil
}

func (p usbPort) Write(b []byte) (int, error) {
	return p.serial.Write(b)
}

// openLink returns the command link and the log writer. A log UART that
// fails to configure leaves logging off.
func openLink() (io.ReadWriter, io.Writer) {
	usb := usbPort{serial: machine.Serial}
	err := uartx.UART0.Configure(machine.UARTConfig{
		BaudRate: uartBaudRate,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	if transport != "uart" {
		if err != nil {
			return usb, nil
		}
		return usb, uartx.UART0
	}
	if err != nil {
		println("uart0:", err.Error())
	}
	return uartx.UART0, usb
}

func main() {
	rw, logOut := openLink()
	logx.Output = logOut

	ctrl := periph.New(rp2.New())
	d := dispatch.New(ctrl, dispatch.FirmwareVersion)
	v := dispatch.FirmwareVersion
	logx.Infof("firmware %d.%d.%d serving over %s", v.Major, v.Minor, v.Patch, transport)
	for {
		err := d.Serve(context.Background(), rw)
		logx.Errorf("serve: %v", err)
		time.Sleep(100 * time.Millisecond)
	}
}
