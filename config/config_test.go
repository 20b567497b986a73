package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsariola/chordgrid"
	"github.com/vsariola/chordgrid/config"
	"github.com/vsariola/chordgrid/metadata"
	"github.com/vsariola/chordgrid/recognize"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, c.Path())
	assert.Equal(t, 4, c.BarsPerLine)
	assert.Equal(t, chordgrid.DefaultTempo, c.Tempo)
	assert.Equal(t, chordgrid.CommonTime, c.TimeSignature)
	assert.Equal(t, "sqlite", c.Store.Driver)
	assert.Equal(t, filepath.Join(dir, "songs.sqlite"), c.Store.Path)
	assert.Equal(t, recognize.DefaultModel, c.OpenAI.Model)
	assert.Equal(t, metadata.DefaultEndpoint, c.Metadata.Endpoint)
	assert.Equal(t, metadata.DefaultTitleQuery, c.Metadata.TitleQuery)
	assert.NoError(t, c.Validate())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "loading must not create the file")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bars_per_line: 8
time_signature: 6/8
log_level: debug
store:
  driver: memory
openai:
  api_key: sk-file
metadata:
  title_query: .data.title
`), 0o644))
	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, c.BarsPerLine)
	assert.Equal(t, chordgrid.TimeSignature{Beats: 6, Unit: 8}, c.TimeSignature)
	assert.Equal(t, "memory", c.Store.Driver)
	assert.Empty(t, c.Store.Path)
	assert.Equal(t, ".data.title", c.Metadata.TitleQuery)
	l, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	t.Setenv(config.APIKeyEnv, "sk-env")
	assert.Equal(t, "sk-file", c.APIKey())
	c.OpenAI.APIKey = ""
	assert.Equal(t, "sk-env", c.APIKey())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("time_signature: 5/3\n"), 0o644))
	_, err := config.Load(bad)
	assert.ErrorIs(t, err, chordgrid.ErrInvalidTimeSignature)

	require.NoError(t, os.WriteFile(bad, []byte("store: [\n"), 0o644))
	_, err = config.Load(bad)
	assert.Error(t, err)

	c := config.Default()
	c.Store.Driver = "mongo"
	assert.Error(t, c.Validate())
	c = config.Default()
	c.LogLevel = "loud"
	assert.Error(t, c.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := config.Load(path)
	require.NoError(t, err)
	c.BarsPerLine = 6
	c.Store.Driver = "badger"
	require.NoError(t, c.Save())
	d, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, d.BarsPerLine)
	assert.Equal(t, "badger", d.Store.Driver)
	assert.Equal(t, c.Store.Path, d.Store.Path)
}
