package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsariola/chordgrid"
	"github.com/vsariola/chordgrid/config"
	"github.com/vsariola/chordgrid/editor"
)

type testEnv struct {
	dir    string
	config string
}

func setupTestEnv(t *testing.T, extra string) testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("log_level: warn\nstore:\n  driver: sqlite\n  path: %s\n%s", filepath.Join(dir, "songs.sqlite"), extra)
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))
	return testEnv{dir: dir, config: cfg}
}

func (e testEnv) path(name string) string { return filepath.Join(e.dir, name) }

func (e testEnv) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return e.runContext(context.Background(), args...)
}

func (e testEnv) runContext(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	var out, errb bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errb)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err = root.ExecuteContext(ctx)
	return out.String(), errb.String(), err
}

func (e testEnv) readSong(t *testing.T, name string) chordgrid.Song {
	t.Helper()
	b, err := os.ReadFile(e.path(name))
	require.NoError(t, err)
	song, err := editor.UnmarshalSong(b)
	require.NoError(t, err)
	return song
}

func (e testEnv) write(t *testing.T, name, content string) {
	t.Helper()
	p := e.path(name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestVersion(t *testing.T) {
	env := setupTestEnv(t, "")
	stdout, _, err := env.run(t, "version", "-v")
	require.NoError(t, err)
	assert.Contains(t, stdout, "chordgrid")
	assert.Contains(t, stdout, "sqlite")
}

func TestBadConfig(t *testing.T) {
	env := setupTestEnv(t, "")
	env.write(t, "config.yaml", "store:\n  driver: mongo\n")
	_, _, err := env.run(t, "version")
	assert.Error(t, err)
}

func TestNewAndShow(t *testing.T) {
	env := setupTestEnv(t, "")
	_, _, err := env.run(t, "new", "--title", "Blue Bossa", "--key", "Cm", "--time", "3/4", "--tempo", "90", env.path("song.yaml"))
	require.NoError(t, err)
	song := env.readSong(t, "song.yaml")
	assert.Equal(t, "Blue Bossa", song.Title)
	assert.Equal(t, "Cm", song.Key)
	assert.Equal(t, 90, song.Tempo)
	assert.Equal(t, chordgrid.TimeSignature{Beats: 3, Unit: 4}, song.TimeSignature)
	require.Len(t, song.Sections, 1)
	assert.Equal(t, 3, song.Sections[0].Bars[0].Beats)

	stdout, _, err := env.run(t, "show", env.path("song.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Blue Bossa")
	assert.Contains(t, stdout, "Intro")
	assert.Contains(t, stdout, "Key Cm")

	_, _, err = env.run(t, "new", "--time", "3/5")
	assert.ErrorIs(t, err, chordgrid.ErrInvalidTimeSignature)
}

func TestNewWithLength(t *testing.T) {
	env := setupTestEnv(t, "")
	_, _, err := env.run(t, "new", "--tempo", "120", "--length", "65s", env.path("take.json"))
	require.NoError(t, err)
	b, err := os.ReadFile(env.path("take.json"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("{")))
	song := env.readSong(t, "take.json")
	require.Len(t, song.Sections, 3)
	assert.Len(t, song.Sections[2].Bars, 1)
	require.NotNil(t, song.Sections[2].Bars[0].Timestamp)
	assert.InDelta(t, 64, *song.Sections[2].Bars[0].Timestamp, 1e-9)
}

const verseText = "= Verse\n| C | G ; D | . | Am |\n"

func TestImportAndExport(t *testing.T) {
	env := setupTestEnv(t, "")
	env.write(t, "charts/a/verse.txt", verseText)
	env.write(t, "charts/b/chorus_one.txt", "= Chorus\n| F | G |\n")
	_, _, err := env.run(t, "import", env.path("charts/**/*.txt"), "--out-dir", env.path("songs"))
	require.NoError(t, err)
	verse := env.readSong(t, "songs/verse.yaml")
	assert.Equal(t, "verse", verse.Title)
	require.Len(t, verse.Sections, 1)
	assert.Len(t, verse.Sections[0].Bars, 4)
	chorus := env.readSong(t, "songs/chorus_one.yaml")
	assert.Equal(t, "chorus one", chorus.Title)

	stdout, _, err := env.run(t, "export", env.path("songs/verse.yaml"))
	require.NoError(t, err)
	assert.Equal(t, verseText, stdout)

	_, _, err = env.run(t, "export", env.path("songs/verse.yaml"), "-o", env.path("verse.mid"), "--bass")
	require.NoError(t, err)
	mid, err := os.ReadFile(env.path("verse.mid"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(mid, []byte("MThd")))

	stdout, _, err = env.run(t, "export", env.path("songs/verse.yaml"), "--format", "sheet", "--sheet", "html")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<h2>Verse</h2>")

	stdout, _, err = env.run(t, "export", env.path("songs/verse.yaml"), "-f", "json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "{"))

	_, _, err = env.run(t, "export", env.path("songs/verse.yaml"), "-f", "pdf")
	assert.Error(t, err)
}

func TestImportErrors(t *testing.T) {
	env := setupTestEnv(t, "")
	_, _, err := env.run(t, "import", env.path("*.txt"))
	assert.Error(t, err)

	env.write(t, "empty.txt", "# only a comment\n")
	_, stderr, err := env.run(t, "import", env.path("empty.txt"))
	assert.Error(t, err)
	assert.Contains(t, stderr, "error:")
	_, err = os.Stat(env.path("empty.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestTranspose(t *testing.T) {
	env := setupTestEnv(t, "")
	env.write(t, "verse.txt", verseText)
	_, _, err := env.run(t, "import", env.path("verse.txt"))
	require.NoError(t, err)
	_, _, err = env.run(t, "transpose", env.path("verse.yaml"), "2")
	require.NoError(t, err)
	song := env.readSong(t, "verse.yaml")
	assert.Equal(t, "D", song.Key)
	bars := song.Sections[0].Bars
	assert.Equal(t, "D", bars[0].Chord)
	assert.Equal(t, [3]string{"A", "E", ""}, bars[1].Slots())
	assert.Equal(t, "Bm", bars[3].Chord)

	_, _, err = env.run(t, "transpose", env.path("verse.yaml"), "up")
	assert.Error(t, err)
}

func TestStoreCommands(t *testing.T) {
	env := setupTestEnv(t, "")
	env.write(t, "verse.txt", verseText)
	_, _, err := env.run(t, "import", env.path("verse.txt"))
	require.NoError(t, err)

	stdout, _, err := env.run(t, "save", env.path("verse.yaml"))
	require.NoError(t, err)
	id := strings.TrimSpace(stdout)
	require.NotEmpty(t, id)

	stdout, _, err = env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, id)
	assert.Contains(t, stdout, "verse")

	_, _, err = env.run(t, "load", id, "-o", env.path("loaded.yaml"))
	require.NoError(t, err)
	loaded := env.readSong(t, "loaded.yaml")
	original := env.readSong(t, "verse.yaml")
	assert.Equal(t, original.Sections[0].Bars, loaded.Sections[0].Bars)

	stdout, _, err = env.run(t, "save", "--id", id, env.path("loaded.yaml"))
	require.NoError(t, err)
	assert.Equal(t, id, strings.TrimSpace(stdout))

	_, _, err = env.run(t, "delete", id)
	require.NoError(t, err)
	stdout, _, err = env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no songs stored")

	_, stderr, err := env.run(t, "load", id)
	assert.Error(t, err)
	assert.Contains(t, stderr, "Loading failed")
}

func TestRecognize(t *testing.T) {
	env := setupTestEnv(t, "")
	env.write(t, "chart.txt", "\ufeff= A\r\n| Em | C |\r\n")
	stdout, _, err := env.run(t, "recognize", "--plain", env.path("chart.txt"))
	require.NoError(t, err)
	song, err := editor.UnmarshalSong([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, "chart", song.Title)
	require.Len(t, song.Sections, 1)
	assert.Equal(t, "Em", song.Sections[0].Bars[0].Chord)

	t.Setenv(config.APIKeyEnv, "")
	_, _, err = env.run(t, "recognize", env.path("chart.txt"))
	assert.ErrorContains(t, err, "API key")
}

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title":"Miles Davis - So What (Official Audio)"}`)
	}))
	defer srv.Close()
	env := setupTestEnv(t, "metadata:\n  endpoint: "+srv.URL+"/embed?url=\n")
	stdout, _, err := env.run(t, "lookup", "https://youtu.be/zqNTltOGh5c")
	require.NoError(t, err)
	assert.Equal(t, "title:  So What\nartist: Miles Davis\n", stdout)

	_, _, err = env.run(t, "new", env.path("song.yaml"))
	require.NoError(t, err)
	_, _, err = env.run(t, "lookup", "https://youtu.be/zqNTltOGh5c", "--song", env.path("song.yaml"))
	require.NoError(t, err)
	song := env.readSong(t, "song.yaml")
	assert.Equal(t, "So What", song.Title)
	assert.Equal(t, "Miles Davis", song.Artist)
}

func TestWatch(t *testing.T) {
	env := setupTestEnv(t, "")
	env.write(t, "live.txt", "= A\n| C |\n")
	out := env.path("live.yaml")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := env.runContext(ctx, "watch", env.path("live.txt"), "--debounce", "20ms")
		done <- err
	}()
	chordOf := func() string {
		b, err := os.ReadFile(out)
		if err != nil {
			return ""
		}
		song, err := editor.UnmarshalSong(b)
		if err != nil || len(song.Sections) == 0 || len(song.Sections[0].Bars) == 0 {
			return ""
		}
		return song.Sections[0].Bars[0].Chord
	}
	require.Eventually(t, func() bool { return chordOf() == "C" }, 5*time.Second, 10*time.Millisecond)
	// give the watcher time to start before changing the file
	time.Sleep(200 * time.Millisecond)
	env.write(t, "live.txt", "= A\n| Dm7 | G7 |\n")
	assert.Eventually(t, func() bool { return chordOf() == "Dm7" }, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
