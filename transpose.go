package chordgrid

import (
	"regexp"
	"strings"
)

// spellings is the chromatic spelling table, starting from C. Flat
// spellings share a pitch class with the sharp before them.
var spellings = []string{
	"C", "C#", "Db", "D", "D#", "Eb", "E", "F", "F#", "Gb", "G", "G#", "Ab", "A", "A#", "Bb", "B",
}

// enharmonics maps flat roots to the sharp spelling used as output.
var enharmonics = map[string]string{
	"Db": "C#",
	"Eb": "D#",
	"Gb": "F#",
	"Ab": "G#",
	"Bb": "A#",
}

var sharps = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// pitchClasses maps every entry of spellings to its pitch class 0..11.
var pitchClasses = func() map[string]int {
	ret := map[string]int{}
	for _, s := range spellings {
		n := s
		if e, ok := enharmonics[s]; ok {
			n = e
		}
		for pc, sharp := range sharps {
			if sharp == n {
				ret[s] = pc
			}
		}
	}
	return ret
}()

var rootRe = regexp.MustCompile(`^([A-G][#b]?)(.*)$`)

// verbatim lists tokens that start like a chord but are directions written
// into the chord text. They are never transposed.
var verbatim = map[string]bool{
	"Coda":  true,
	"D.C.":  true,
	"D.S.":  true,
	"DC":    true,
	"DS":    true,
	"Fine":  true,
	"End":   true,
	"Break": true,
	"Fill":  true,
	"Fade":  true,
	"Bass":  true,
}

// PitchClass returns the pitch class (C=0 .. B=11) of a note name.
func PitchClass(note string) (int, bool) {
	pc, ok := pitchClasses[note]
	return pc, ok
}

// TransposeNote moves a note name by the given number of semitones and
// returns it with sharp spelling. Unknown names are returned unchanged.
func TransposeNote(note string, semitones int) string {
	pc, ok := PitchClass(note)
	if !ok {
		return note
	}
	return sharps[mod(pc+semitones, 12)]
}

// TransposeChord transposes a single chord token such as "F#m7" or "Bb/D".
// The root is normalised to sharp spelling and shifted; the rest of the
// token, including the bass note of a slash chord, is kept as is. Tokens
// that do not start with a note name, e.g. "%" or "/", and directions such
// as "Fine" are returned unchanged.
func TransposeChord(token string, semitones int) string {
	if verbatim[token] {
		return token
	}
	m := rootRe.FindStringSubmatch(token)
	if m == nil {
		return token
	}
	return TransposeNote(m[1], semitones) + m[2]
}

// TransposeSlot transposes every whitespace separated token of a chord
// slot. Runs of whitespace collapse to a single space.
func TransposeSlot(slot string, semitones int) string {
	fields := strings.Fields(slot)
	for i, f := range fields {
		fields[i] = TransposeChord(f, semitones)
	}
	return strings.Join(fields, " ")
}

// Transpose transposes all three chord slots of the bar.
func (b *Bar) Transpose(semitones int) {
	b.Chord = TransposeSlot(b.Chord, semitones)
	b.ChordAfter = TransposeSlot(b.ChordAfter, semitones)
	b.ChordEnd = TransposeSlot(b.ChordEnd, semitones)
}

// SamePitch reports whether two chord slots name the same pitches token by
// token, ignoring enharmonic spelling of the roots.
func SamePitch(a, b string) bool {
	fa, fb := strings.Fields(a), strings.Fields(b)
	if len(fa) != len(fb) {
		return false
	}
	for i := range fa {
		if TransposeChord(fa[i], 0) != TransposeChord(fb[i], 0) {
			return false
		}
	}
	return true
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}
