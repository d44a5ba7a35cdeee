package app

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/forest"
	"github.com/relabs-tech/gesture_computer/internal/pipeline"
)

// resultMessage is the wire form of one classified window.
type resultMessage struct {
	forest.Result
	WindowEnd int64 `json:"window_end"` // ms timestamp of the window's last sample
}

// mqttReporter publishes pipeline output to the configured topics and logs
// per-window failures. It is the "reporting collaborator" of the pipeline;
// publish errors are logged and dropped so they never stall acquisition.
type mqttReporter struct {
	client       mqtt.Client
	topicResults string
	topicEvents  string
}

func newMQTTReporter(client mqtt.Client, cfg *config.Config) *mqttReporter {
	return &mqttReporter{
		client:       client,
		topicResults: cfg.TopicResults,
		topicEvents:  cfg.TopicEvents,
	}
}

func (r *mqttReporter) Result(res forest.Result, windowEnd int64) {
	payload, err := json.Marshal(resultMessage{Result: res, WindowEnd: windowEnd})
	if err != nil {
		log.Printf("producer: result marshal error: %v", err)
		return
	}
	if token := r.client.Publish(r.topicResults, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("producer: MQTT publish error (results): %v", token.Error())
	}
}

func (r *mqttReporter) Event(ev pipeline.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("producer: event marshal error: %v", err)
		return
	}
	if token := r.client.Publish(r.topicEvents, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("producer: MQTT publish error (events): %v", token.Error())
	}
	log.Printf("producer: gesture event %q (%d windows, %d..%d ms)",
		ev.Label, ev.Windows, ev.FirstTS, ev.LastTS)
}

func (r *mqttReporter) Failure(err error) {
	// Expected occasionally on malformed windows; the window is dropped and
	// acquisition continues.
	log.Printf("producer: window discarded: %v", err)
}

// loadModel loads the configured model file, or the embedded default when no
// MODEL_PATH is set. A model that fails validation aborts startup: inference
// on a corrupt forest cannot be trusted.
func loadModel(cfg *config.Config) (*forest.Model, error) {
	if cfg.ModelPath != "" {
		log.Printf("loading model from %s", cfg.ModelPath)
		return forest.LoadFile(cfg.ModelPath)
	}
	log.Println("MODEL_PATH not set, using embedded default model")
	return forest.LoadDefault()
}

// pipelineConfig maps the config file to controller tuning.
func pipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		Stride: cfg.WindowStride,
		Debounce: pipeline.DebounceConfig{
			MinWindows: cfg.DebounceMinWindows,
			MinSpanMS:  int64(cfg.DebounceMinSpanMS),
			MaxWindows: cfg.DebounceMaxWindows,
			MaxSpanMS:  int64(cfg.DebounceMaxSpanMS),
		},
	}
}
