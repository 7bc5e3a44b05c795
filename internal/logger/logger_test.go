package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	log.Debug().Msg("hidden")
	log.Info().Uint("job_id", 7).Msg("job paid")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "job paid", entry["message"])
	assert.Equal(t, "contractor-ledger", entry["service"])
	assert.EqualValues(t, 7, entry["job_id"])
}

func TestNewWithWriterDevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("development", &buf)

	log.Debug().Msg("visible")

	assert.Contains(t, buf.String(), "visible")
}
