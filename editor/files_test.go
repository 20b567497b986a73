package editor_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsariola/chordgrid"
	"github.com/vsariola/chordgrid/chordtext"
	"github.com/vsariola/chordgrid/editor"
)

func richModel(t *testing.T) *editor.Model {
	t.Helper()
	m, sec := sectionWith(t, "C", "Am", "F", "G7")
	require.True(t, m.Title().SetValue("Test Song"))
	selectBars(m, sec, 1, 2)
	require.NoError(t, sec.AddEnding(chordgrid.SecondEnding).Do())
	selectBars(m, sec, 0)
	require.NoError(t, sec.AddNoteSymbol(chordgrid.Half).Do())
	require.NoError(t, sec.AddRest(chordgrid.Quarter, true).Do())
	require.NoError(t, sec.AddSign(chordgrid.DCAlCoda).Do())
	require.NoError(t, sec.Bar(sec.BarIDs()[3]).RecordTimestamp(7.25).Do())
	return m
}

func TestWriteReadYAML(t *testing.T) {
	m := richModel(t)
	buf := &myWriteCloser{bytes.NewBuffer(nil)}
	require.NoError(t, m.WriteSong(buf))
	assert.True(t, m.ChangedSinceSave(), "writing to a non-file does not mark the document saved")

	m2 := newModel(t)
	require.NoError(t, m2.ReadSong(io.NopCloser(bytes.NewReader(buf.Bytes()))))
	assert.Equal(t, m.Song(), m2.Song())
	assert.Equal(t, 1, m2.History().Len())
}

type brokenWriter struct{ closed bool }

func (w *brokenWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }
func (w *brokenWriter) Close() error                { w.closed = true; return nil }

func TestWriteSongClosesOnError(t *testing.T) {
	m := newModel(t)
	w := &brokenWriter{}
	require.Error(t, m.WriteSong(w))
	assert.True(t, w.closed)
	assert.True(t, hasAlert(m, editor.Error, "disk full"))
}

func TestWriteReadJSONFile(t *testing.T) {
	m := richModel(t)
	path := filepath.Join(t.TempDir(), "song.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, m.WriteSong(f))
	assert.Equal(t, path, m.FilePath())
	assert.False(t, m.ChangedSinceSave())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(contents, []byte("{")))

	f, err = os.Open(path)
	require.NoError(t, err)
	m2 := newModel(t)
	require.NoError(t, m2.ReadSong(f))
	assert.Equal(t, path, m2.FilePath())
	assert.Equal(t, m.Song(), m2.Song())
}

func TestReadSongRejectsInvalid(t *testing.T) {
	m := newModel(t)
	before := m.Song()
	err := m.ReadSong(io.NopCloser(bytes.NewReader([]byte("sections: [[[["))))
	assert.Error(t, err)
	assert.Equal(t, before, m.Song())

	bad := "sections:\n  - id: a\n    name: A\n    timesignature: 4/4\n    bars:\n      - id: x\n      - id: x\n"
	assert.Error(t, m.ReadSong(io.NopCloser(bytes.NewReader([]byte(bad)))))
	assert.Equal(t, before, m.Song())
}

func TestUnmarshalSongDefaults(t *testing.T) {
	song, err := editor.UnmarshalSong([]byte("title: Bare\n"))
	require.NoError(t, err)
	assert.Equal(t, chordgrid.DefaultTempo, song.Tempo)
	assert.Equal(t, chordgrid.CommonTime, song.TimeSignature)
}

func TestImportExportText(t *testing.T) {
	m := newModel(t)
	n := m.History().Len()
	require.NoError(t, m.ImportText("= Intro\n| C | G ; D |\n\n= Chorus\n| F | % |\n"))
	assert.Equal(t, n+1, m.History().Len())
	song := m.Song()
	require.Len(t, song.Sections, 2)
	assert.Equal(t, "Chorus", song.Sections[1].Name)
	assert.Equal(t, "D", song.Sections[0].Bars[1].ChordAfter)
	assert.Equal(t, "= Intro\n| C | G ; D |\n\n= Chorus\n| F | % |\n", m.ExportText())
}

func TestImportTextWithoutSections(t *testing.T) {
	m := newModel(t)
	before := m.Song()
	err := m.ImportText("just some words\n")
	require.ErrorIs(t, err, chordtext.ErrNoSections)
	assert.Equal(t, before, m.Song())
	assert.Equal(t, 1, m.History().Len())
	assert.True(t, hasAlert(m, editor.Error, "convert"))
}

func TestImportTextClearsEarlierFailure(t *testing.T) {
	m := newModel(t)
	require.Error(t, m.ImportText("just some words\n"))
	require.True(t, hasAlert(m, editor.Error, "convert"))
	require.NoError(t, m.ImportText("= Verse\n| C | G |\n"))
	assert.False(t, hasAlert(m, editor.Error, "convert"))
	assert.Zero(t, m.Alerts().Len())
}

func TestRecovery(t *testing.T) {
	m := richModel(t)
	path := filepath.Join(t.TempDir(), "recovery", "song.json")
	m.SetRecoveryFilePath(path)
	require.True(t, m.Tempo().SetValue(96))
	require.NoError(t, m.SaveRecovery())
	_, err := os.Stat(path)
	require.NoError(t, err)

	m2 := newModel(t)
	m2.UnmarshalRecovery(m.MarshalRecovery())
	assert.Equal(t, m.Song(), m2.Song())
	assert.True(t, m2.ChangedSinceSave())
	assert.Equal(t, 96, m2.Tempo().Value())
}
