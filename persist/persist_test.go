package persist

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/etnz/tally"
	"github.com/etnz/tally/date"
)

var today = date.MustParse("2025-06-18")

// encode is a helper for tests to compare states through their document.
func encode(t *testing.T, s *tally.State) string {
	t.Helper()
	var buf bytes.Buffer
	if err := tally.EncodeState(&buf, s); err != nil {
		t.Fatalf("EncodeState() error: %v", err)
	}
	return buf.String()
}

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Load(ctx, today); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Load() on empty store error = %v, want fs.ErrNotExist", err)
	}

	demo := tally.Demo(today)
	if err := store.Save(ctx, tally.Empty(today)); err != nil {
		t.Fatalf("Save(Empty) error: %v", err)
	}
	if err := store.Save(ctx, demo); err != nil {
		t.Fatalf("Save(Demo) error: %v", err)
	}
	got, err := store.Load(ctx, today)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := got.Verify(); err != nil {
		t.Fatalf("loaded state Verify() error: %v", err)
	}
	if encode(t, got) != encode(t, demo) {
		t.Errorf("Load() did not return the last saved state")
	}

	// Loading a month later rolls the state.
	later, err := store.Load(ctx, today.AddMonths(1))
	if err != nil {
		t.Fatalf("Load(next month) error: %v", err)
	}
	if got, want := later.Current(), today.AddMonths(1).StartOfMonth(); got != want {
		t.Errorf("Load(next month).Current() = %v, want %v", got, want)
	}
}

func TestFile(t *testing.T) {
	testStore(t, File{Path: filepath.Join(t.TempDir(), "data", "tally.json")})
}

func TestSQLite(t *testing.T) {
	q, err := OpenSQLite(filepath.Join(t.TempDir(), "tally.db"), 3)
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer q.Close()
	testStore(t, q)

	ctx := context.Background()
	for range 5 {
		if err := q.Save(ctx, tally.Empty(today)); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}
	snapshots, err := q.Snapshots(ctx)
	if err != nil {
		t.Fatalf("Snapshots() error: %v", err)
	}
	if len(snapshots) != 3 {
		t.Errorf("len(Snapshots()) = %d, want 3", len(snapshots))
	}
	for i := 1; i < len(snapshots); i++ {
		if snapshots[i-1].ID <= snapshots[i].ID {
			t.Errorf("Snapshots() not sorted latest first: %d then %d", snapshots[i-1].ID, snapshots[i].ID)
		}
	}
}

// slowStore records saved states and blocks each save until released.
type slowStore struct {
	release chan struct{}
	mu      sync.Mutex
	saved   []*tally.State
	err     error
}

func (s *slowStore) Save(ctx context.Context, state *tally.State) error {
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, state)
	return s.err
}

func (s *slowStore) Load(ctx context.Context, today date.Date) (*tally.State, error) {
	return nil, fs.ErrNotExist
}

func TestBackground_Coalesces(t *testing.T) {
	store := &slowStore{release: make(chan struct{})}
	b := NewBackground(store)

	first, second, third := tally.Empty(today), tally.Demo(today), tally.Empty(today)
	b.Submit(first)
	// Wait for the writer to pick the first state up.
	for {
		b.mu.Lock()
		picked := b.pending == nil
		b.mu.Unlock()
		if picked {
			break
		}
		time.Sleep(time.Millisecond)
	}
	b.Submit(second)
	b.Submit(third)
	close(store.release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if len(store.saved) != 2 {
		t.Fatalf("saved %d states, want 2", len(store.saved))
	}
	if store.saved[0] != first || store.saved[1] != third {
		t.Errorf("saved states are not the first and the latest")
	}
}

func TestBackground_Error(t *testing.T) {
	want := errors.New("disk full")
	store := &slowStore{release: make(chan struct{}), err: want}
	close(store.release)
	b := NewBackground(store)
	defer b.Close()

	b.Submit(tally.Empty(today))
	if err := b.Flush(context.Background()); !errors.Is(err, want) {
		t.Errorf("Flush() error = %v, want %v", err, want)
	}
}

func TestBackground_FlushCancelled(t *testing.T) {
	store := &slowStore{release: make(chan struct{})}
	b := NewBackground(store)

	b.Submit(tally.Empty(today))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Flush(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Flush(cancelled) error = %v, want context.Canceled", err)
	}
	close(store.release)
	b.Close()
	if len(store.saved) != 1 {
		t.Errorf("saved %d states, want 1", len(store.saved))
	}
}

func TestBackground_CloseSavesPending(t *testing.T) {
	store := &slowStore{release: make(chan struct{})}
	close(store.release)
	b := NewBackground(store)
	b.Submit(tally.Demo(today))
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if len(store.saved) != 1 {
		t.Errorf("saved %d states, want 1", len(store.saved))
	}
}
