package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gesture_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `# gesture computer test config
MQTT_BROKER=tcp://localhost:1883
TOPIC_SAMPLES=gesture/samples
TOPIC_RESULTS=gesture/results
TOPIC_EVENTS=gesture/events
SENSOR_SOURCE=mock
SAMPLE_INTERVAL=20

WINDOW_STRIDE=10
DEBOUNCE_MIN_WINDOWS=9
DEBOUNCE_MIN_SPAN_MS=450
DEBOUNCE_MAX_WINDOWS=9
DEBOUNCE_MAX_SPAN_MS=2000
DISPLAY_I2C_ADDR=0x3C
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "gesture/results", cfg.TopicResults)
	assert.Equal(t, "mock", cfg.SensorSource)
	assert.Equal(t, 20, cfg.SampleInterval)
	assert.Equal(t, 10, cfg.WindowStride)
	assert.Equal(t, 9, cfg.DebounceMinWindows)
	assert.Equal(t, uint16(0x3C), cfg.DisplayI2CAddr)
}

func TestLoadRejectsMissingBroker(t *testing.T) {
	_, err := Load(writeConfig(t, `TOPIC_SAMPLES=s
TOPIC_RESULTS=r
TOPIC_EVENTS=e
SENSOR_SOURCE=mock
SAMPLE_INTERVAL=20
`))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"BOGUS_KEY=1\n"))
	assert.Error(t, err)
}

func TestLoadRequiresSPIDeviceForRealSensor(t *testing.T) {
	bad := `MQTT_BROKER=tcp://localhost:1883
TOPIC_SAMPLES=s
TOPIC_RESULTS=r
TOPIC_EVENTS=e
SENSOR_SOURCE=mpu9250
SAMPLE_INTERVAL=20
`
	_, err := Load(writeConfig(t, bad))
	assert.Error(t, err)
}

func TestLoadRejectsBadSensorSource(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"SENSOR_SOURCE=gyro\n"))
	assert.Error(t, err)
}
