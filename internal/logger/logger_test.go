package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "svc.log")
	require.NoError(t, Init(Options{Level: "warn", File: path}))

	Get().Warn().Str("stage", "ocr").Msg("page skipped")
	Get().Debug().Msg("never written at warn level")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "page skipped", line["message"])
	assert.Equal(t, "ocr", line["stage"])
	assert.NotContains(t, string(data), "never written")
}

func TestInitInvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.log")
	require.NoError(t, Init(Options{Level: "loud", File: path}))

	Get().Info().Msg("still logged")
	Get().Debug().Msg("filtered")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "still logged")
	assert.NotContains(t, string(data), "filtered")
}

func TestAxiomSinkDropsDebugLines(t *testing.T) {
	s := &axiomSink{}

	line := []byte(`{"level":"debug","message":"noisy"}`)
	n, err := s.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)
}
