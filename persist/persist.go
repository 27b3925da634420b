// Package persist mirrors tally states to durable storage.
//
// The in-memory state is authoritative: stores are best-effort mirrors,
// written off the critical path by a Background writer.
package persist

import (
	"context"

	"github.com/etnz/tally"
	"github.com/etnz/tally/date"
)

// Store saves and loads whole states.
type Store interface {
	// Save mirrors s.
	Save(ctx context.Context, s *tally.State) error
	// Load returns the last saved state rolled to today's month. It returns
	// an error wrapping fs.ErrNotExist when nothing was saved yet.
	Load(ctx context.Context, today date.Date) (*tally.State, error)
}
