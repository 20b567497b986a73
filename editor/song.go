package editor

import (
	"github.com/vsariola/chordgrid"
)

const (
	minTempo = 20
	maxTempo = 400
	maxCapo  = 12
)

type (
	Tempo         Model
	Capo          Model
	Key           Model
	Title         Model
	Artist        Model
	TimeSignature Model
)

func (m *Model) Tempo() Int            { return MakeInt((*Tempo)(m)) }
func (m *Model) Capo() Int             { return MakeInt((*Capo)(m)) }
func (m *Model) Key() String           { return MakeString((*Key)(m)) }
func (m *Model) Title() String         { return MakeString((*Title)(m)) }
func (m *Model) Artist() String        { return MakeString((*Artist)(m)) }
func (m *Model) TimeSignature() String { return MakeString((*TimeSignature)(m)) }

// Metadata returns the song-wide settings.
func (m *Model) Metadata() chordgrid.Metadata { return m.d.Song.Metadata }

func (v *Tempo) Value() int            { return v.d.Song.Tempo }
func (v *Tempo) Range() RangeInclusive { return RangeInclusive{minTempo, maxTempo} }
func (v *Tempo) SetValue(value int) bool {
	defer (*Model)(v).change("Tempo")()
	v.d.Song.Tempo = value
	return true
}

func (v *Capo) Value() int            { return v.d.Song.Capo }
func (v *Capo) Range() RangeInclusive { return RangeInclusive{0, maxCapo} }
func (v *Capo) SetValue(value int) bool {
	defer (*Model)(v).change("Capo")()
	v.d.Song.Capo = value
	return true
}

func (v *Key) Value() string { return v.d.Song.Key }
func (v *Key) SetValue(value string) bool {
	defer (*Model)(v).change("Key")()
	v.d.Song.Key = value
	return true
}

func (v *Title) Value() string { return v.d.Song.Title }
func (v *Title) SetValue(value string) bool {
	defer (*Model)(v).change("Title")()
	v.d.Song.Title = value
	return true
}

func (v *Artist) Value() string { return v.d.Song.Artist }
func (v *Artist) SetValue(value string) bool {
	defer (*Model)(v).change("Artist")()
	v.d.Song.Artist = value
	return true
}

// The global time signature is used for new sections and for the playback
// bar duration; existing sections keep their own.

func (v *TimeSignature) Value() string { return v.d.Song.TimeSignature.String() }
func (v *TimeSignature) SetValue(value string) bool {
	ts, err := chordgrid.ParseTimeSignature(value)
	if err != nil {
		(*Model)(v).reject(err)
		return false
	}
	if ts == v.d.Song.TimeSignature {
		return false
	}
	defer (*Model)(v).change("TimeSignature")()
	v.d.Song.TimeSignature = ts
	return true
}

// SetMetadata returns an Action that sets the title and artist together,
// e.g. from a metadata lookup. Empty values leave the field as it is.
func (m *Model) SetMetadata(title, artist string) Action {
	return MakeAction(&setMetadata{m, title, artist})
}

type setMetadata struct {
	*Model
	title, artist string
}

func (m *setMetadata) Do() error {
	if (m.title == "" || m.title == m.d.Song.Title) && (m.artist == "" || m.artist == m.d.Song.Artist) {
		return nil
	}
	defer m.change("SetMetadata")()
	if m.title != "" {
		m.d.Song.Title = m.title
	}
	if m.artist != "" {
		m.d.Song.Artist = m.artist
	}
	return nil
}
