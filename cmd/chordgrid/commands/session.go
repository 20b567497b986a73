package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vsariola/chordgrid/editor"
	"github.com/vsariola/chordgrid/store"
)

// session is one editor model driven from the command line.
type session struct {
	a     *app
	model *editor.Model
	errw  io.Writer
}

func (a *app) newSession(errw io.Writer) *session {
	m := editor.NewModel(editor.NewBroker(), a.logger)
	m.BarsPerLine().SetValue(a.cfg.BarsPerLine)
	return &session{a: a, model: m, errw: errw}
}

// open reads a song file into the model.
func (s *session) open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	if err := s.model.ReadSong(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// write writes the document to path, or to w if path is "-" or empty.
func (s *session) write(path string, w io.Writer) error {
	if path == "" || path == "-" {
		return s.model.WriteSong(nopCloser{w})
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return s.model.WriteSong(f)
}

// wait processes broker messages until no requests are pending, then
// reports the alerts.
func (s *session) wait(ctx context.Context) error {
	for s.model.Busy() {
		select {
		case msg := <-s.model.Broker().ToModel:
			s.model.ProcessMsg(msg)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.report()
}

var errAlert = errors.New("the command reported errors")

// report prints and expires the alerts of the model. It returns errAlert if
// any of them was an error.
func (s *session) report() error {
	var failed bool
	for _, al := range s.model.Alerts().Iterate {
		fmt.Fprintf(s.errw, "%s: %s\n", al.Priority, al.Message)
		failed = failed || al.Priority == editor.Error
	}
	s.model.Alerts().Update(time.Hour)
	if failed {
		return errAlert
	}
	return nil
}

func (a *app) openStore() (store.Store, error) {
	if a.cfg.Store.Path != "" && a.cfg.Store.Driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.Store.Path), 0o755); err != nil {
			return nil, err
		}
	}
	return store.Open(a.cfg.Store.Driver, a.cfg.Store.Path, a.logger)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
