package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gesture_computer/internal/sample"
)

func TestParseSampleLine(t *testing.T) {
	s, err := parseSampleLine("123456,-1000,20,980")
	require.NoError(t, err)
	assert.Equal(t, sample.Sample{Timestamp: 123456, X: -1000, Y: 20, Z: 980}, s)
}

func TestParseSampleLineTolerantOfSpaces(t *testing.T) {
	s, err := parseSampleLine("10, 1, -2, 3")
	require.NoError(t, err)
	assert.Equal(t, sample.Sample{Timestamp: 10, X: 1, Y: -2, Z: 3}, s)
}

func TestParseSampleLineRejectsGarbage(t *testing.T) {
	for _, line := range []string{
		"",
		"1,2,3",
		"1,2,3,4,5",
		"abc,1,2,3",
		"1,x,2,3",
	} {
		_, err := parseSampleLine(line)
		assert.Error(t, err, "line %q", line)
	}
}
