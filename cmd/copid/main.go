package main

import (
	"flag"
	"log"

	"github.com/golang/glog"

	env "github.com/robotalks/copi/pkg/env/daemon"
	fx "github.com/robotalks/copi/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	daemon := env.NewConfig().MustNewEnv()
	runner := fx.NewRunner().HandleSignals()
	if err := daemon.Start(runner); err != nil {
		runner.Stop()
		runner.Wait()
		log.Fatalln(err)
	}
	if err := runner.Wait(); err != nil {
		glog.Errorf("copid stopped: %v", err)
		glog.Flush()
		log.Fatalln(err)
	}
}
