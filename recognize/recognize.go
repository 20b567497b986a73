// Package recognize turns chord sheets in other forms, such as photos of a
// handwritten chart, into the chord text read by chordtext.Parse.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Recognizer reads a chord sheet from r and returns it as chord text. The
// text need not be well formed; chordtext.Parse skips what it does not
// understand.
type Recognizer interface {
	Recognize(ctx context.Context, r io.Reader) (string, error)
}

var ErrEmptyInput = errors.New("recognize: empty input")

// maxInput bounds the size of the input read into memory.
const maxInput = 20 << 20

// PlainText is a Recognizer for input that already is chord text. It strips
// a byte order mark and normalises line endings.
type PlainText struct{}

func (PlainText) Recognize(ctx context.Context, r io.Reader) (string, error) {
	b, err := readAll(r)
	if err != nil {
		return "", err
	}
	s := strings.TrimPrefix(string(b), "\ufeff")
	return strings.ReplaceAll(s, "\r\n", "\n"), nil
}

func readAll(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxInput+1))
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	if len(b) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) > maxInput {
		return nil, fmt.Errorf("recognize: input larger than %d bytes", maxInput)
	}
	return b, nil
}

// stripFences removes a Markdown code fence around a model reply.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s) + "\n"
}
