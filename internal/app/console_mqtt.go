package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/pipeline"
)

// RunConsoleMQTT subscribes to the gesture topics and pretty-prints every
// classified window and every confirmed gesture event.
func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to per-window results
	resultToken := client.Subscribe(cfg.TopicResults, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r resultMessage
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: result unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[WIN ]  label=%-8s conf=%.2f votes=%v end=%dms\n",
			r.Label, r.Confidence, r.Votes, r.WindowEnd,
		)
	})
	resultToken.Wait()
	if resultToken.Error() != nil {
		return resultToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicResults)

	// Subscribe to debounced gesture events
	eventToken := client.Subscribe(cfg.TopicEvents, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev pipeline.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("console: event unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[GEST]  *** %s ***  (%d windows over %dms)\n",
			ev.Label, ev.Windows, ev.LastTS-ev.FirstTS,
		)
	})
	eventToken.Wait()
	if eventToken.Error() != nil {
		return eventToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicEvents)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
