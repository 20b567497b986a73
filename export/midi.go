// Package export renders chord grid documents in formats meant for other
// programs or for reading: Standard MIDI Files and template based sheets.
package export

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/vsariola/chordgrid"
)

const ticksPerQuarter = 960

// MIDIOptions controls the backing track written by WriteMIDI. Zero values
// select the defaults.
type MIDIOptions struct {
	// Octave of the chord roots; 4 puts C at middle C.
	Octave   int
	Velocity uint8
	// Program is the General MIDI program of the chord channel, 0 is a
	// piano.
	Program uint8
	// Bass adds the root, or the slash bass, two octaves below the chord on
	// channel 2.
	Bass bool
}

func (o *MIDIOptions) defaults() {
	if o.Octave == 0 {
		o.Octave = 4
	}
	if o.Velocity == 0 {
		o.Velocity = 90
	}
}

const (
	chordChannel = 0
	bassChannel  = 1
)

// quality intervals, in semitones above the root
var (
	major     = []int{0, 4, 7}
	minor     = []int{0, 3, 7}
	dim       = []int{0, 3, 6}
	aug       = []int{0, 4, 8}
	sus2      = []int{0, 2, 7}
	sus4      = []int{0, 5, 7}
	power     = []int{0, 7}
	halfDim7  = []int{0, 3, 6, 10}
	fullDim7  = []int{0, 3, 6, 9}
	noteNames = "CDEFGAB"
)

// splitRoot splits a chord symbol into its root note and the rest.
func splitRoot(symbol string) (root, rest string, ok bool) {
	if symbol == "" || !strings.ContainsRune(noteNames, rune(symbol[0])) {
		return "", "", false
	}
	n := 1
	for _, acc := range []string{"#", "b", "♯", "♭"} {
		if strings.HasPrefix(symbol[1:], acc) {
			n += len(acc)
			break
		}
	}
	return symbol[:n], symbol[n:], true
}

// ChordNotes returns the MIDI keys of a chord symbol such as "Am7", "F#m7b5"
// or "C/E", root first, and the key of its bass note. ok is false if the
// symbol does not start with a note name.
func ChordNotes(symbol string, octave int) (notes []uint8, bass uint8, ok bool) {
	root, rest, ok := splitRoot(symbol)
	if !ok {
		return nil, 0, false
	}
	pc, ok := chordgrid.PitchClass(root)
	if !ok {
		return nil, 0, false
	}
	bassPC := pc
	if i := strings.LastIndexByte(rest, '/'); i >= 0 {
		if b, r, ok := splitRoot(rest[i+1:]); ok && r == "" {
			if p, ok := chordgrid.PitchClass(b); ok {
				bassPC = p
			}
		}
		rest = rest[:i]
	}
	intervals := chordIntervals(rest)
	base := (octave+1)*12 + pc
	for _, iv := range intervals {
		if k := base + iv; k >= 0 && k < 128 {
			notes = append(notes, uint8(k))
		}
	}
	b := (octave-1)*12 + bassPC
	return notes, uint8(max(0, min(127, b))), true
}

// chordIntervals reads the quality and the extensions of a chord suffix.
func chordIntervals(q string) []int {
	has := func(s string) bool { return strings.Contains(q, s) }
	var base []int
	switch {
	case has("m7b5") || has("ø"):
		return slices.Clone(halfDim7)
	case has("dim7") || has("°7"):
		return slices.Clone(fullDim7)
	case has("dim") || has("°"):
		base = dim
	case has("aug") || strings.HasPrefix(q, "+"):
		base = aug
	case has("sus2"):
		base = sus2
	case has("sus"):
		base = sus4
	case strings.HasPrefix(q, "5"):
		return slices.Clone(power)
	case strings.HasPrefix(q, "m") && !strings.HasPrefix(q, "maj"), strings.HasPrefix(q, "-"):
		base = minor
	default:
		base = major
	}
	ret := slices.Clone(base)
	switch {
	case has("maj7") || has("M7") || has("Δ"):
		ret = append(ret, 11)
	case has("13") || has("11") || has("9") || has("7"):
		ret = append(ret, 10)
	case has("6"):
		ret = append(ret, 9)
	}
	switch {
	case has("13"):
		ret = append(ret, 14, 21)
	case has("11"):
		ret = append(ret, 14, 17)
	case has("add9") || has("9"):
		ret = append(ret, 14)
	}
	return ret
}

// segment is a span of a bar: a chord, or silence if chord is "".
type segment struct {
	chord string
	ticks uint32
}

// qualityPrefixes are the lower case words a chord suffix may start with.
var qualityPrefixes = []string{"m", "dim", "aug", "add", "sus"}

// isChord reports whether a token names a chord rather than a mark such as
// "%", "/" or "||:", or a direction such as "Fine" or "D.S.".
func isChord(tok string) bool {
	_, rest, ok := splitRoot(tok)
	if !ok {
		return false
	}
	if rest == "" || !unicode.IsLower(rune(rest[0])) {
		return !strings.HasPrefix(rest, ".")
	}
	for _, p := range qualityPrefixes {
		if strings.HasPrefix(rest, p) {
			return true
		}
	}
	return false
}

func chordTokens(slot string) []string {
	var ret []string
	for _, f := range strings.Fields(slot) {
		f = strings.TrimSuffix(strings.TrimPrefix(f, "||:"), ":||")
		if isChord(f) {
			ret = append(ret, f)
		}
	}
	return ret
}

// barSegments splits a bar into chord and rest spans. A "%" bar repeats the
// chords of prev.
func barSegments(b *chordgrid.Bar, ts chordgrid.TimeSignature, prev []string) (segs []segment, chords []string) {
	unit := uint32(ticksPerQuarter * 4 / ts.Unit)
	total := uint32(ts.Beats) * unit
	restTicks := func(r *chordgrid.Rest) uint32 {
		if r == nil {
			return 0
		}
		return uint32(r.Weight(ts) * float64(unit))
	}
	parts := [][]string{chordTokens(b.Chord), nil, chordTokens(b.ChordAfter), nil, chordTokens(b.ChordEnd)}
	if strings.TrimSpace(b.Chord) == "%" {
		parts[0] = prev
	}
	silent := restTicks(b.Rest) + restTicks(b.TrailingRest)
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	if n == 0 || silent >= total {
		return []segment{{ticks: total}}, nil
	}
	each := (total - silent) / uint32(n)
	for i, p := range parts {
		switch i {
		case 1:
			if t := restTicks(b.Rest); t > 0 {
				segs = append(segs, segment{ticks: t})
			}
		case 3:
			if t := restTicks(b.TrailingRest); t > 0 {
				segs = append(segs, segment{ticks: t})
			}
		}
		for _, c := range p {
			segs = append(segs, segment{chord: c, ticks: each})
			chords = append(chords, c)
		}
	}
	// rounding leftovers go to the last span
	var sum uint32
	for _, s := range segs {
		sum += s.ticks
	}
	segs[len(segs)-1].ticks += total - sum
	return segs, chords
}

type event struct {
	tick uint32
	// off events sort before on events at the same tick
	order int
	msg   []byte
}

// WriteMIDI writes a Standard MIDI File with the chords of the song held for
// their share of each bar. Section names become markers and time signature
// changes become meter events.
func WriteMIDI(w io.Writer, song chordgrid.Song, opts MIDIOptions) error {
	opts.defaults()
	var events []event
	add := func(tick uint32, order int, msg []byte) {
		events = append(events, event{tick, order, msg})
	}
	tempo := float64(song.Tempo)
	if song.TimeSignature.Unit > 0 {
		// tempo counts beats of the global time signature
		tempo = tempo * 4 / float64(song.TimeSignature.Unit)
	}
	if tempo <= 0 {
		tempo = chordgrid.DefaultTempo
	}
	add(0, 0, smf.MetaTempo(tempo))
	add(0, 0, midi.ProgramChange(chordChannel, opts.Program))
	if opts.Bass {
		add(0, 0, midi.ProgramChange(bassChannel, 32))
	}
	var tick uint32
	var prev []string
	var meter chordgrid.TimeSignature
	for _, sec := range song.Sections {
		add(tick, 1, smf.MetaMarker(sec.Name))
		for j := range sec.Bars {
			b := &sec.Bars[j]
			ts := b.EffectiveTimeSignature(sec.TimeSignature)
			if ts != meter {
				add(tick, 1, smf.MetaMeter(uint8(ts.Beats), uint8(ts.Unit)))
				meter = ts
			}
			segs, chords := barSegments(b, ts, prev)
			if len(chords) > 0 {
				prev = chords
			}
			for _, s := range segs {
				if notes, bass, ok := ChordNotes(s.chord, opts.Octave); ok && s.ticks > 0 {
					for _, k := range notes {
						add(tick, 2, midi.NoteOn(chordChannel, k, opts.Velocity))
						add(tick+s.ticks, 0, midi.NoteOff(chordChannel, k))
					}
					if opts.Bass {
						add(tick, 2, midi.NoteOn(bassChannel, bass, opts.Velocity))
						add(tick+s.ticks, 0, midi.NoteOff(bassChannel, bass))
					}
				}
				tick += s.ticks
			}
		}
	}
	slices.SortStableFunc(events, func(a, b event) int {
		return cmp.Or(cmp.Compare(a.tick, b.tick), cmp.Compare(a.order, b.order))
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(song.Title))
	var last uint32
	for _, e := range events {
		tr.Add(e.tick-last, e.msg)
		last = e.tick
	}
	tr.Close(tick - last)
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
