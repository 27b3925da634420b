package persist

import (
	"context"
	"log"
	"sync"

	"github.com/etnz/tally"
)

// Background mirrors states to a Store from a single goroutine.
//
// Submit never blocks: when states are submitted faster than they are
// saved, only the latest pending one is saved.
type Background struct {
	store Store

	mu        sync.Mutex
	pending   *tally.State
	submitted uint64 // sequence of the latest submitted state
	saved     uint64 // sequence of the latest saved (or failed) state
	err       error  // error of the latest save
	changed   chan struct{}

	wake    chan struct{}
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewBackground starts a writer to store. Close must be called to stop it.
func NewBackground(store Store) *Background {
	b := &Background{
		store:   store,
		changed: make(chan struct{}),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go b.run()
	return b
}

// Submit schedules s to be saved, replacing any state not saved yet.
func (b *Background) Submit(s *tally.State) {
	b.mu.Lock()
	b.pending = s
	b.submitted++
	b.mu.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every state submitted before the call is saved, or
// replaced by a later one that is. It returns the error of the last save.
func (b *Background) Flush(ctx context.Context) error {
	b.mu.Lock()
	target := b.submitted
	for b.saved < target {
		ch := b.changed
		b.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		b.mu.Lock()
	}
	err := b.err
	b.mu.Unlock()
	return err
}

// Close saves the pending state, if any, and stops the writer.
func (b *Background) Close() error {
	b.once.Do(func() { close(b.quit) })
	<-b.stopped
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *Background) run() {
	defer close(b.stopped)
	for {
		select {
		case <-b.wake:
			b.save()
		case <-b.quit:
			b.save()
			return
		}
	}
}

func (b *Background) save() {
	b.mu.Lock()
	s, seq := b.pending, b.submitted
	b.pending = nil
	b.mu.Unlock()
	if s == nil {
		return
	}

	err := b.store.Save(context.Background(), s)
	if err != nil {
		log.Printf("persist: could not mirror state: %v", err)
	}

	b.mu.Lock()
	b.saved, b.err = seq, err
	close(b.changed)
	b.changed = make(chan struct{})
	b.mu.Unlock()
}
