package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDSerial   string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicSamples string
	TopicResults string
	TopicEvents  string

	// Model. Empty MODEL_PATH means the embedded default forest.
	ModelPath string

	// Window policy: 0 means non-overlapping (stride = window size),
	// 1..W-1 gives sliding windows with lower event latency.
	WindowStride int

	// Sensor
	SensorSource   string // "mpu9250" or "mock"
	AccelSPIDevice string
	AccelCSPin     string
	SampleInterval int // milliseconds

	// Serial producer
	SerialPort     string
	SerialBaudRate int

	// Debounce (DEBOUNCE_MIN_WINDOWS=0 disables gesture events)
	DebounceMinWindows int
	DebounceMinSpanMS  int
	DebounceMaxWindows int
	DebounceMaxSpanMS  int

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_SERIAL":
		c.MQTTClientIDSerial = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "TOPIC_RESULTS":
		c.TopicResults = value
	case "TOPIC_EVENTS":
		c.TopicEvents = value

	// Model
	case "MODEL_PATH":
		c.ModelPath = value

	// Window policy
	case "WINDOW_STRIDE":
		stride, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WINDOW_STRIDE %q: %w", value, err)
		}
		if stride < 0 {
			return fmt.Errorf("WINDOW_STRIDE must be >= 0 (0 = non-overlapping), got %d", stride)
		}
		c.WindowStride = stride

	// Sensor
	case "SENSOR_SOURCE":
		if value != "mpu9250" && value != "mock" {
			return fmt.Errorf("SENSOR_SOURCE must be \"mpu9250\" or \"mock\", got %q", value)
		}
		c.SensorSource = value
	case "ACCEL_SPI_DEVICE":
		c.AccelSPIDevice = value
	case "ACCEL_CS_PIN":
		c.AccelCSPin = value
	case "SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.SampleInterval = interval

	// Serial producer
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate

	// Debounce
	case "DEBOUNCE_MIN_WINDOWS":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DEBOUNCE_MIN_WINDOWS %q: %w", value, err)
		}
		c.DebounceMinWindows = val
	case "DEBOUNCE_MIN_SPAN_MS":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DEBOUNCE_MIN_SPAN_MS %q: %w", value, err)
		}
		c.DebounceMinSpanMS = val
	case "DEBOUNCE_MAX_WINDOWS":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DEBOUNCE_MAX_WINDOWS %q: %w", value, err)
		}
		c.DebounceMaxWindows = val
	case "DEBOUNCE_MAX_SPAN_MS":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DEBOUNCE_MAX_SPAN_MS %q: %w", value, err)
		}
		c.DebounceMaxSpanMS = val

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicSamples == "" {
		return fmt.Errorf("TOPIC_SAMPLES is required")
	}
	if c.TopicResults == "" {
		return fmt.Errorf("TOPIC_RESULTS is required")
	}
	if c.TopicEvents == "" {
		return fmt.Errorf("TOPIC_EVENTS is required")
	}
	if c.SensorSource == "" {
		return fmt.Errorf("SENSOR_SOURCE is required")
	}
	if c.SensorSource == "mpu9250" && c.AccelSPIDevice == "" {
		return fmt.Errorf("ACCEL_SPI_DEVICE is required for SENSOR_SOURCE=mpu9250")
	}
	if c.SampleInterval == 0 {
		return fmt.Errorf("SAMPLE_INTERVAL is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
