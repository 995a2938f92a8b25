package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/robotalks/copi/pkg/bridge/mqtt"
	"github.com/robotalks/copi/pkg/bridge/msgs"
	fx "github.com/robotalks/copi/pkg/framework"
)

var (
	mqttURL = "mqtt://localhost:1883/copi/"
)

func init() {
	if val := os.Getenv("COPI_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func describe(msg msgs.Message) string {
	switch m := msg.(type) {
	case *msgs.Result:
		return fmt.Sprintf("%+v", m.WireResult())
	case msgs.CommandMessage:
		cmd, err := m.Command()
		if err != nil {
			return err.Error()
		}
		return fmt.Sprintf("%+v", cmd)
	}
	return msg.Serializable().String()
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/"+mqtt.TopicMeta) {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		log.Printf("%s: #%d [%s] %s", topic, typed.Sequence,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), describe(msg))
	}))

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("copimon", fx.RunnableFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return q.Close()
	})))
	runner.Wait()
}
