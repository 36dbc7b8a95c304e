package logging_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/plus3/kindecs/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "json", Writer: &buf})
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Int("tick", 3).Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"tick":3`)
	assert.Contains(t, out, `"time":`)
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &buf})
	require.NoError(t, err)

	logger.Info().Msg("Engine started")
	assert.Contains(t, buf.String(), "Engine started")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := logging.New(logging.Options{Level: "loud"})
	assert.Error(t, err)

	_, err = logging.New(logging.Options{Format: "xml"})
	assert.True(t, errors.Is(err, logging.ErrUnknownFormat))
}

func TestComponentAndGlobal(t *testing.T) {
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: logging.FormatJSON, Writer: &buf})
	require.NoError(t, err)

	logging.SetGlobal(logging.Component(logger, "engine"))
	log.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"engine"`)
}
