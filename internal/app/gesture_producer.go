package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/pipeline"
	"github.com/relabs-tech/gesture_computer/internal/sample"
	"github.com/relabs-tech/gesture_computer/internal/sensors"
)

// RunGestureProducer reads the accelerometer at the configured rate, drives
// the classification pipeline, and publishes raw samples, per-window results
// and debounced gesture events to MQTT.
func RunGestureProducer() error {
	log.Println("starting gesture-computer producer (accelerometer → forest → MQTT)")

	cfg := config.Get()

	model, err := loadModel(cfg)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
		return err
	}
	log.Printf("model loaded: %d trees, W=%d, F=%d, labels=%v",
		len(model.Trees), model.WindowSize, model.FeatureCount, model.Labels)

	// --- Choose sample source (mock vs real sensor) ---
	var src sample.Source
	switch cfg.SensorSource {
	case "mock":
		log.Println("using mock accelerometer source")
		src = sensors.NewMockSource()
	case "mpu9250":
		src, err = sensors.NewAccelSource()
		if err != nil {
			log.Fatalf("failed to initialize accelerometer: %v", err)
			return err
		}
	default:
		return fmt.Errorf("unknown sensor source %q", cfg.SensorSource)
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)

	ctrl, err := pipeline.New(model, pipelineConfig(cfg), newMQTTReporter(client, cfg))
	if err != nil {
		return fmt.Errorf("pipeline setup: %w", err)
	}
	if cfg.WindowStride > 0 && cfg.WindowStride < model.WindowSize {
		log.Printf("window policy: sliding, stride %d of %d samples", cfg.WindowStride, model.WindowSize)
	} else {
		log.Printf("window policy: non-overlapping, %d samples per window", model.WindowSize)
	}

	log.Println("connected to MQTT, starting acquisition loop")

	ticker := time.NewTicker(time.Duration(cfg.SampleInterval) * time.Millisecond)
	defer ticker.Stop()

	var published int
	for range ticker.C {
		s, err := src.Next()
		if err != nil {
			// One bad read never stops acquisition.
			log.Printf("producer: sensor read error: %v", err)
			continue
		}

		if payload, err := json.Marshal(s); err != nil {
			log.Printf("producer: sample marshal error: %v", err)
		} else {
			client.Publish(cfg.TopicSamples, 0, false, payload)
		}

		ctrl.OnSample(s)

		published++
		if published%500 == 0 {
			log.Printf("producer: %d samples read, %d windows classified, state %s",
				published, ctrl.WindowsClassified(), ctrl.State())
		}
	}
	return nil
}
