package chordgrid

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

type (
	// Rest is a rest marker of a bar, e.g. a dotted quarter rest.
	Rest struct {
		Duration Duration
		Dotted   bool
	}

	// Ending marks a bar as part of a first or second ending bracket. Start
	// and End flag the first and last bar of the bracket; a bracket of a
	// single bar has both set.
	Ending struct {
		Group EndingGroup
		Start bool `yaml:",omitempty"`
		End   bool `yaml:",omitempty"`
	}

	EndingGroup int

	// Signs is a set of navigation signs attached to a bar. The flags are
	// independent of each other.
	Signs uint8

	// Slot names one of the three chord positions of a bar.
	Slot int
)

const (
	FirstEnding  EndingGroup = 1
	SecondEnding EndingGroup = 2
)

const (
	Segno Signs = 1 << iota
	Coda
	DS
	DC
	DSAlCoda
	DCAlCoda
	Fine
)

const (
	PrimarySlot Slot = iota
	AfterRestSlot
	EndSlot
)

var ErrInvalidRest = errors.New("chordgrid: invalid rest")
var ErrInvalidSign = errors.New("chordgrid: invalid sign")

// AllSigns lists the signs in display order.
var AllSigns = []Signs{Segno, Coda, DS, DC, DSAlCoda, DCAlCoda, Fine}

var signNames = map[Signs]string{
	Segno:    "segno",
	Coda:     "coda",
	DS:       "ds",
	DC:       "dc",
	DSAlCoda: "ds-al-coda",
	DCAlCoda: "dc-al-coda",
	Fine:     "fine",
}

var signLabels = map[Signs]string{
	Segno:    "𝄋",
	Coda:     "𝄌",
	DS:       "D.S.",
	DC:       "D.C.",
	DSAlCoda: "D.S. al Coda",
	DCAlCoda: "D.C. al Coda",
	Fine:     "Fine",
}

// Rest methods

func (r Rest) String() string {
	if !r.Duration.Valid() {
		return "?R"
	}
	s := durationInfos[r.Duration].rest
	if r.Dotted {
		s += "."
	}
	return s
}

// Weight returns the beats the rest covers in a bar of the signature.
func (r Rest) Weight(ts TimeSignature) float64 {
	w := r.Duration.Weight(ts)
	if r.Dotted {
		w *= 1.5
	}
	return w
}

// ParseRest parses the rest symbols WR, HR, QR, ER and SR, optionally
// followed by a dot.
func ParseRest(s string) (Rest, error) {
	s = strings.TrimSpace(s)
	dotted := strings.HasSuffix(s, ".")
	code := strings.TrimSuffix(s, ".")
	for i, info := range durationInfos {
		if strings.EqualFold(code, info.rest) {
			return Rest{Duration: Duration(i), Dotted: dotted}, nil
		}
	}
	return Rest{}, fmt.Errorf("%w: %q", ErrInvalidRest, s)
}

func (r Rest) MarshalText() ([]byte, error) {
	if !r.Duration.Valid() {
		return nil, fmt.Errorf("%w: duration %d", ErrInvalidRest, int(r.Duration))
	}
	return []byte(r.String()), nil
}

func (r *Rest) UnmarshalText(text []byte) error {
	v, err := ParseRest(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Ending methods

func (g EndingGroup) Valid() bool { return g == FirstEnding || g == SecondEnding }

func (g EndingGroup) String() string {
	switch g {
	case FirstEnding:
		return "1."
	case SecondEnding:
		return "2."
	}
	return fmt.Sprintf("EndingGroup(%d)", int(g))
}

// Signs methods

func (s Signs) Has(f Signs) bool { return s&f == f }
func (s Signs) Len() int         { return bits.OnesCount8(uint8(s)) }

// Labels returns the display labels of the set signs, in display order.
func (s Signs) Labels() []string {
	var ret []string
	for _, f := range AllSigns {
		if s.Has(f) {
			ret = append(ret, signLabels[f])
		}
	}
	return ret
}

func (s Signs) String() string {
	var names []string
	for _, f := range AllSigns {
		if s.Has(f) {
			names = append(names, signNames[f])
		}
	}
	return strings.Join(names, ",")
}

// ParseSign parses a single sign name, e.g. "segno" or "dc-al-coda".
func ParseSign(name string) (Signs, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range signNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSign, name)
}

func (s Signs) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signs) UnmarshalText(text []byte) error {
	var v Signs
	for _, name := range strings.Split(string(text), ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, err := ParseSign(name)
		if err != nil {
			return err
		}
		v |= f
	}
	*s = v
	return nil
}

// Slot methods

func (s Slot) Valid() bool { return s >= PrimarySlot && s <= EndSlot }

// Slot returns a pointer to the chord text of the given slot.
func (b *Bar) Slot(s Slot) *string {
	switch s {
	case AfterRestSlot:
		return &b.ChordAfter
	case EndSlot:
		return &b.ChordEnd
	}
	return &b.Chord
}
