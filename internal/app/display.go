package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/pipeline"
)

// displayData holds the latest data shown on the OLED.
type displayData struct {
	mu sync.RWMutex

	result     resultMessage
	haveResult bool

	event     pipeline.Event
	eventAt   time.Time
	haveEvent bool
}

// RunDisplay shows the current classification on an SSD1306 OLED and flashes
// confirmed gestures for a couple of seconds.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &displayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicResults, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r resultMessage
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("display: result unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.result = r
		data.haveResult = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicResults)

	token = client.Subscribe(cfg.TopicEvents, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev pipeline.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("display: event unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.event = ev
		data.eventAt = time.Now()
		data.haveEvent = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicEvents)

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		data.mu.RLock()
		result := data.result
		haveResult := data.haveResult
		event := data.event
		eventFresh := data.haveEvent && time.Since(data.eventAt) < 2*time.Second
		data.mu.RUnlock()

		if err := updateGestureDisplay(dev, result, haveResult, event, eventFresh); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func blankImage() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}
	return img
}

func updateGestureDisplay(dev *ssd1306.Dev, r resultMessage, haveResult bool, ev pipeline.Event, eventFresh bool) error {
	img := blankImage()

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	switch {
	case eventFresh:
		// A confirmed gesture takes over the whole screen briefly.
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("** " + strings.ToUpper(ev.Label) + " **"))
		drawer.Dot = fixed.P(0, 43)
		drawer.DrawBytes([]byte(fmt.Sprintf("%d windows", ev.Windows)))
	case haveResult:
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(r.Label))
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("conf %.2f", r.Confidence)))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("t=%dms", r.WindowEnd)))
	default:
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Gesture"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := blankImage()

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Gesture Pi"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Waiting for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("windows"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
