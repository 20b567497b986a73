package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/vsariola/chordgrid"
)

func TestChordNotes(t *testing.T) {
	tests := []struct {
		symbol string
		notes  []uint8
		bass   uint8
	}{
		{"C", []uint8{60, 64, 67}, 36},
		{"Am7", []uint8{69, 72, 76, 79}, 45},
		{"C/E", []uint8{60, 64, 67}, 40},
		{"F#m7b5", []uint8{66, 69, 72, 76}, 42},
		{"Bb7", []uint8{70, 74, 77, 80}, 46},
		{"Gsus4", []uint8{67, 72, 74}, 43},
		{"Dmaj7", []uint8{62, 66, 69, 73}, 38},
		{"E5", []uint8{64, 71}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			notes, bass, ok := ChordNotes(tt.symbol, 4)
			require.True(t, ok)
			assert.Equal(t, tt.notes, notes)
			assert.Equal(t, tt.bass, bass)
		})
	}
	_, _, ok := ChordNotes("%", 4)
	assert.False(t, ok)
}

func TestIsChord(t *testing.T) {
	for _, tok := range []string{"C", "Am", "G/B", "Ebdim", "Fsus2", "Cadd9", "B7"} {
		assert.True(t, isChord(tok), tok)
	}
	for _, tok := range []string{"Fine", "D.S.", "D.C.", "Coda", "%", "/", "||:", "", "Fade"} {
		assert.False(t, isChord(tok), tok)
	}
}

func TestBarSegments(t *testing.T) {
	ts := chordgrid.CommonTime
	b := chordgrid.Bar{Chord: "C", ChordAfter: "G", Rest: &chordgrid.Rest{Duration: chordgrid.Half}}
	segs, chords := barSegments(&b, ts, nil)
	assert.Equal(t, []string{"C", "G"}, chords)
	assert.Equal(t, []segment{{"C", 960}, {"", 1920}, {"G", 960}}, segs)

	repeat := chordgrid.Bar{Chord: "%"}
	segs, chords = barSegments(&repeat, ts, []string{"Am", "F"})
	assert.Equal(t, []string{"Am", "F"}, chords)
	assert.Equal(t, []segment{{"Am", 1920}, {"F", 1920}}, segs)

	empty := chordgrid.Bar{}
	segs, _ = barSegments(&empty, chordgrid.TimeSignature{Beats: 6, Unit: 8}, nil)
	assert.Equal(t, []segment{{"", 2880}}, segs)
}

func TestWriteMIDI(t *testing.T) {
	song := chordgrid.DefaultSong()
	song.Title = "Test"
	sec := song.Sections[0]
	sec.Bars[0].Chord = "C ||:"
	sec.Bars[1].Chord = "Am"
	sec.Bars[1].ChordAfter = "F"
	sec.Bars[2].Chord = "%"
	sec.Bars[3].Chord = "Fine"
	var buf bytes.Buffer
	require.NoError(t, WriteMIDI(&buf, song, MIDIOptions{Bass: true}))

	s, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, s.Tracks, 1)
	var (
		tick    uint32
		starts  []uint8
		bpm     float64
		markers []string
	)
	for _, ev := range s.Tracks[0] {
		tick += ev.Delta
		var ch, key, vel uint8
		var text string
		switch {
		case ev.Message.GetMetaTempo(&bpm):
		case ev.Message.GetMetaMarker(&text):
			markers = append(markers, text)
		case midi.Message(ev.Message).GetNoteStart(&ch, &key, &vel):
			if ch == chordChannel {
				starts = append(starts, key)
			}
		}
	}
	assert.Equal(t, uint32(4*4*ticksPerQuarter), tick)
	assert.InDelta(t, 120, bpm, 0.01)
	assert.Equal(t, []string{"Intro"}, markers)
	want := []uint8{
		60, 64, 67, // C
		69, 72, 76, // Am
		65, 69, 72, // F
		69, 72, 76, // % repeats Am F
		65, 69, 72,
	}
	assert.Equal(t, want, starts)
}

func TestWriteMIDISixEight(t *testing.T) {
	song := chordgrid.NewSong(chordgrid.TimeSignature{Beats: 6, Unit: 8})
	song.Sections[0].Bars[0].Chord = "D"
	var buf bytes.Buffer
	require.NoError(t, WriteMIDI(&buf, song, MIDIOptions{}))
	s, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	var bpm float64
	var num, denom uint8
	for _, ev := range s.Tracks[0] {
		ev.Message.GetMetaTempo(&bpm)
		ev.Message.GetMetaMeter(&num, &denom)
	}
	assert.InDelta(t, 60, bpm, 0.01)
	assert.Equal(t, uint8(6), num)
	assert.Equal(t, uint8(8), denom)
}
