package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x00002a/cinc/pkg/logging"
)

func TestInitTruncatesOnEachCall(t *testing.T) {
	dir := t.TempDir()

	close1, err := logging.Init(dir, false)
	require.NoError(t, err)
	log.Info().Msg("first invocation")
	require.NoError(t, close1())

	logPath := filepath.Join(dir, logging.LogFileName)
	first, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(first), "first invocation")

	close2, err := logging.Init(dir, false)
	require.NoError(t, err)
	log.Info().Msg("second invocation")
	require.NoError(t, close2())

	second, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(second), "first invocation")
	assert.Contains(t, string(second), "second invocation")
}

func TestInitWritesToExtraWriter(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	closeLog, err := logging.Init(dir, true, &console)
	require.NoError(t, err)
	defer closeLog()

	log.Debug().Msg("debug line")
	assert.Contains(t, console.String(), "debug line")
}
