package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: LevelWarn, Console: true, Out: &buf})
	require.NoError(t, err)

	log := l.Component("speaker")
	log.Info().Msg("hidden")
	log.Warn().Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "speaker")
	assert.Empty(t, l.Path())
	assert.NoError(t, l.Close())
}

func TestNew_FileOutput(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Config{Dir: dir, Level: LevelDebug})
	require.NoError(t, err)

	zl := l.Component("processor")
	zl.Info().Str("intent", "search").Msg("command processed")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"processor"`)
	assert.Contains(t, string(data), `"intent":"search"`)
}
