package chordgrid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TimeSignature is a meter "Beats/Unit", e.g. 6/8. A bar of the signature
// has a capacity of Beats beats; see Duration.Weight for how note durations
// are counted against it.
type TimeSignature struct {
	Beats int
	Unit  int
}

var ErrInvalidTimeSignature = errors.New("chordgrid: invalid time signature")

var CommonTime = TimeSignature{4, 4}

// CommonTimeSignatures lists the signatures offered for selection.
var CommonTimeSignatures = []TimeSignature{
	{2, 4}, {3, 4}, {4, 4}, {5, 4}, {6, 8}, {7, 8}, {9, 8}, {12, 8}, {2, 2},
}

const maxBeats = 32

// ParseTimeSignature parses strings of the form "N/D". The unit must be a
// power of two no larger than 32.
func ParseTimeSignature(s string) (TimeSignature, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return TimeSignature{}, fmt.Errorf("%w: %q", ErrInvalidTimeSignature, s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("%w: %q", ErrInvalidTimeSignature, s)
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("%w: %q", ErrInvalidTimeSignature, s)
	}
	ts := TimeSignature{Beats: n, Unit: d}
	if err := ts.Validate(); err != nil {
		return TimeSignature{}, err
	}
	return ts, nil
}

func (ts TimeSignature) Validate() error {
	if ts.Beats < 1 || ts.Beats > maxBeats {
		return fmt.Errorf("%w: %d beats", ErrInvalidTimeSignature, ts.Beats)
	}
	switch ts.Unit {
	case 1, 2, 4, 8, 16, 32:
		return nil
	}
	return fmt.Errorf("%w: unit %d", ErrInvalidTimeSignature, ts.Unit)
}

// Capacity returns the number of beats that fit in one bar.
func (ts TimeSignature) Capacity() float64 {
	return float64(ts.Beats)
}

func (ts TimeSignature) IsZero() bool {
	return ts.Beats == 0 && ts.Unit == 0
}

func (ts TimeSignature) String() string {
	if ts.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d/%d", ts.Beats, ts.Unit)
}

func (ts TimeSignature) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

func (ts *TimeSignature) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*ts = TimeSignature{}
		return nil
	}
	v, err := ParseTimeSignature(string(text))
	if err != nil {
		return err
	}
	*ts = v
	return nil
}
