package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/pipeline"
	"github.com/relabs-tech/gesture_computer/internal/sample"
)

// RunSerialProducer reads accelerometer samples from a serial-attached MCU
// and drives the same pipeline as the on-board producer. The MCU emits one
// sample per line as CSV: "timestamp_ms,x,y,z" in milli-g.
func RunSerialProducer() error {
	cfg := config.Get()

	model, err := loadModel(cfg)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
		return err
	}
	log.Printf("model loaded: %d trees, W=%d, labels=%v",
		len(model.Trees), model.WindowSize, model.Labels)

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSerial)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("serial producer connected to MQTT broker at %s", cfg.MQTTBroker)

	ctrl, err := pipeline.New(model, pipelineConfig(cfg), newMQTTReporter(client, cfg))
	if err != nil {
		return fmt.Errorf("pipeline setup: %w", err)
	}

	// ---- 2) Open sample serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.SerialBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("sample serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("serial read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s, err := parseSampleLine(line)
		if err != nil {
			// Noisy serial links drop characters; skip the line.
			log.Printf("serial: bad sample line %q: %v", line, err)
			continue
		}

		if payload, err := json.Marshal(s); err != nil {
			log.Printf("serial: sample marshal error: %v", err)
		} else {
			client.Publish(cfg.TopicSamples, 0, false, payload)
		}

		ctrl.OnSample(s)
	}
}

// parseSampleLine parses "timestamp_ms,x,y,z" with milli-g axis values.
func parseSampleLine(line string) (sample.Sample, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 4 {
		return sample.Sample{}, fmt.Errorf("want 4 fields, got %d", len(fields))
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return sample.Sample{}, fmt.Errorf("timestamp: %w", err)
	}

	var axes [3]int32
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseInt(strings.TrimSpace(fields[i+1]), 10, 32)
		if err != nil {
			return sample.Sample{}, fmt.Errorf("axis %d: %w", i, err)
		}
		axes[i] = int32(v)
	}

	return sample.Sample{Timestamp: ts, X: axes[0], Y: axes[1], Z: axes[2]}, nil
}
