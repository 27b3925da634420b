package persist

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/tally"
	"github.com/etnz/tally/date"
)

// File stores the state as a single JSON document.
type File struct {
	Path string
}

// Save writes the document next to Path then renames it over Path, so
// that a crash never leaves a truncated document.
func (f File) Save(ctx context.Context, s *tally.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("could not create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), filepath.Base(f.Path)+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := tally.EncodeState(w, s); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write %q: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write %q: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("could not replace %q: %w", f.Path, err)
	}
	return nil
}

// Load reads the document at Path.
func (f File) Load(ctx context.Context, today date.Date) (*tally.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("could not open state: %w", err)
	}
	defer r.Close()
	s, err := tally.DecodeState(bufio.NewReader(r), today)
	if err != nil {
		return nil, fmt.Errorf("could not load %q: %w", f.Path, err)
	}
	return s, nil
}
