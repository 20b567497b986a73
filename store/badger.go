package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vsariola/chordgrid"
)

var docPrefix = []byte("doc/")

// Badger is a Store backed by BadgerDB. Every document is one key holding
// the msgpack encoding of the document record.
type Badger struct {
	db     *badger.DB
	logger *slog.Logger
}

// BadgerOptions configures the Badger store.
type BadgerOptions struct {
	// Dir is the directory for the data files. Required unless InMemory is
	// set.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger receives badger's warnings and errors. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

func OpenBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("store: BadgerOptions.Dir is required for on-disk mode")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("store: could not open badger at %s: %w", opts.Dir, err)
	}
	return &Badger{db: db, logger: logger}, nil
}

func docKey(id string) []byte {
	return append(append([]byte{}, docPrefix...), id...)
}

func (b *Badger) get(txn *badger.Txn, id string) (*record, error) {
	item, err := txn.Get(docKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	var r record
	err = item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, &r)
	})
	if err != nil {
		return nil, fmt.Errorf("store: corrupt document %q: %w", id, err)
	}
	return &r, nil
}

func (b *Badger) Load(_ context.Context, id string) ([]*chordgrid.Section, chordgrid.Metadata, error) {
	var r *record
	err := b.db.View(func(txn *badger.Txn) (err error) {
		r, err = b.get(txn, id)
		return err
	})
	if err != nil {
		return nil, chordgrid.Metadata{}, err
	}
	return r.Sections, r.Metadata, nil
}

func (b *Badger) Save(_ context.Context, id string, sections []*chordgrid.Section, meta chordgrid.Metadata) (string, error) {
	id, fp, err := prepare(id, sections, meta)
	if err != nil {
		return "", err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		r := &record{Metadata: meta, Sections: sections, Fingerprint: fp, Revision: 1, Updated: time.Now()}
		old, err := b.get(txn, id)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		case old.Fingerprint == fp:
			b.logger.Debug("document unchanged, not saving", "id", id)
			return nil
		default:
			r.Revision = old.Revision + 1
		}
		val, err := msgpack.Marshal(r)
		if err != nil {
			return fmt.Errorf("store: could not encode %q: %w", id, err)
		}
		return txn.Set(docKey(id), val)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (b *Badger) List(_ context.Context) ([]Summary, error) {
	var ret []Summary
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = docPrefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Seek(docPrefix); it.ValidForPrefix(docPrefix); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(docPrefix):])
			var r record
			if err := item.Value(func(val []byte) error { return msgpack.Unmarshal(val, &r) }); err != nil {
				return fmt.Errorf("store: corrupt document %q: %w", id, err)
			}
			ret = append(ret, r.summary(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortSummaries(ret)
	return ret, nil
}

func (b *Badger) Delete(_ context.Context, id string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(docKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger forwards badger's warnings and errors to slog and drops the
// rest.
type badgerLogger struct{ l *slog.Logger }

func (b badgerLogger) Errorf(f string, v ...interface{})   { b.l.Error(fmt.Sprintf(f, v...), "component", "badger") }
func (b badgerLogger) Warningf(f string, v ...interface{}) { b.l.Warn(fmt.Sprintf(f, v...), "component", "badger") }
func (badgerLogger) Infof(string, ...interface{})          {}
func (badgerLogger) Debugf(string, ...interface{})         {}
