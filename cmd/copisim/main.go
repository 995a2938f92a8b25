// copisim serves a simulated device over TCP, one host at a time.
// Point copid at it with -device tcp://host:port.
package main

import (
	"context"
	"flag"
	"log"
	"net"

	"github.com/golang/glog"

	"github.com/robotalks/copi/pkg/dispatch"
	fx "github.com/robotalks/copi/pkg/framework"
	"github.com/robotalks/copi/pkg/hal/sim"
	"github.com/robotalks/copi/pkg/periph"
)

var (
	listenAddr = ":9527"
	cpuFreq    = uint(sim.DefaultCPUFrequency)
)

func init() {
	flag.StringVar(&listenAddr, "listen", listenAddr, "Listen address.")
	flag.UintVar(&cpuFreq, "cpu-freq", cpuFreq, "Reported CPU frequency in Hz.")
}

func serve(ctx context.Context, ln net.Listener, ctrl *periph.Controller) error {
	return fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			glog.Infof("host %s attached", conn.RemoteAddr())
			err = dispatch.New(ctrl, dispatch.FirmwareVersion).Serve(ctx, conn)
			conn.Close()
			glog.Infof("host %s detached: %v", conn.RemoteAddr(), err)
		}
	})
}

func main() {
	flag.Parse()
	defer glog.Flush()

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.Fatalln(err)
	}
	glog.Infof("simulated device listening on %s", ln.Addr())

	dev := sim.New()
	dev.Frequency = uint32(cpuFreq)
	ctrl := periph.New(dev)
	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("sim-device", fx.RunnableFunc(func(ctx context.Context) error {
		return serve(ctx, ln, ctrl)
	})))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
