package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vsariola/chordgrid"
)

// Memory is a Store kept in a map. It is safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	docs map[string]*record
}

func NewMemory() *Memory {
	return &Memory{docs: map[string]*record{}}
}

func (m *Memory) Load(_ context.Context, id string) ([]*chordgrid.Section, chordgrid.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.docs[id]
	if !ok {
		return nil, chordgrid.Metadata{}, notFound(id)
	}
	return copySections(r.Sections), r.Metadata, nil
}

func (m *Memory) Save(_ context.Context, id string, sections []*chordgrid.Section, meta chordgrid.Metadata) (string, error) {
	id, fp, err := prepare(id, sections, meta)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.docs[id]
	if ok && old.Fingerprint == fp {
		return id, nil
	}
	r := &record{Metadata: meta, Sections: copySections(sections), Fingerprint: fp, Revision: 1, Updated: time.Now()}
	if ok {
		r.Revision = old.Revision + 1
	}
	m.docs[id] = r
	return id, nil
}

func (m *Memory) List(context.Context) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := make([]Summary, 0, len(m.docs))
	for id, r := range m.docs {
		ret = append(ret, r.summary(id))
	}
	sortSummaries(ret)
	return ret, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *Memory) Close() error { return nil }

func copySections(sections []*chordgrid.Section) []*chordgrid.Section {
	ret := make([]*chordgrid.Section, len(sections))
	for i, s := range sections {
		ret[i] = s.Copy()
	}
	return ret
}

func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if c := b.Updated.Compare(a.Updated); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
