package chordgrid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Duration is a note duration class.
type Duration int

const (
	Whole Duration = iota
	Half
	Quarter
	Eighth
	Sixteenth
)

var ErrCapacity = errors.New("chordgrid: bar capacity exceeded")
var ErrInvalidDuration = errors.New("chordgrid: invalid duration")

// Durations lists all duration classes, longest first.
var Durations = []Duration{Whole, Half, Quarter, Eighth, Sixteenth}

var durationInfos = []struct {
	name   string
	symbol string // note symbol, e.g. QN
	rest   string // rest symbol, e.g. QR
	beats  float64
}{
	{"whole", "WN", "WR", 4},
	{"half", "HN", "HR", 2},
	{"quarter", "QN", "QR", 1},
	{"eighth", "EN", "ER", 0.5},
	{"sixteenth", "SN", "SR", 0.25},
}

func (d Duration) Valid() bool { return d >= Whole && d <= Sixteenth }

func (d Duration) String() string {
	if !d.Valid() {
		return "Duration(" + strconv.Itoa(int(d)) + ")"
	}
	return durationInfos[d].name
}

// Symbol returns the two letter note symbol used in bar tallies.
func (d Duration) Symbol() string {
	if !d.Valid() {
		return "?N"
	}
	return durationInfos[d].symbol
}

// Weight returns the number of beats a note of the duration takes in a bar
// of the given time signature. In quarter-based signatures a quarter note is
// one beat; the base value is scaled by Unit/4 otherwise, so in 6/8 an
// eighth note is one beat.
func (d Duration) Weight(ts TimeSignature) float64 {
	if !d.Valid() {
		return 0
	}
	return durationInfos[d].beats * float64(ts.Unit) / 4
}

// ParseDuration accepts the long names ("quarter") and the note symbols
// ("QN").
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	for i, info := range durationInfos {
		if strings.EqualFold(s, info.name) || strings.EqualFold(s, info.symbol) {
			return Duration(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
}

func (d Duration) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, int(d))
	}
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// UsedBeats returns the sum of the beat weights of the bar's tally.
func (b *Bar) UsedBeats(ts TimeSignature) float64 {
	var sum float64
	for _, n := range b.NoteTypes {
		sum += float64(n.Count) * n.Duration.Weight(ts)
	}
	return sum
}

// CanAdd reports whether a note of duration d still fits into the bar.
func CanAdd(b *Bar, d Duration, ts TimeSignature) bool {
	return d.Valid() && b.UsedBeats(ts)+d.Weight(ts) <= ts.Capacity()
}

// Available returns the durations that still fit into the bar, longest
// first.
func (b *Bar) Available(ts TimeSignature) []Duration {
	var ret []Duration
	for _, d := range Durations {
		if CanAdd(b, d, ts) {
			ret = append(ret, d)
		}
	}
	return ret
}

// AddNote increments the tally of d in the bar, or returns ErrCapacity and
// leaves the bar untouched if the note does not fit.
func (b *Bar) AddNote(d Duration, ts TimeSignature) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, int(d))
	}
	if !CanAdd(b, d, ts) {
		return fmt.Errorf("%w: %v does not fit, %v of %v beats used", ErrCapacity, d, b.UsedBeats(ts), ts.Capacity())
	}
	for i := range b.NoteTypes {
		if b.NoteTypes[i].Duration == d {
			b.NoteTypes[i].Count++
			return nil
		}
	}
	b.NoteTypes = append(b.NoteTypes, NoteCount{Duration: d, Count: 1})
	return nil
}

// NoteSymbol returns the display form of the bar's tally, e.g. "QN×2 HN".
func (b *Bar) NoteSymbol() string {
	parts := make([]string, 0, len(b.NoteTypes))
	for _, n := range b.NoteTypes {
		if n.Count <= 0 {
			continue
		}
		if n.Count == 1 {
			parts = append(parts, n.Duration.Symbol())
		} else {
			parts = append(parts, n.Duration.Symbol()+"×"+strconv.Itoa(n.Count))
		}
	}
	return strings.Join(parts, " ")
}
