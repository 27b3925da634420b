package tally

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// ID identifies an entity within its kind.
type ID int

// Reserved IDs.
const (
	UserID                 ID = 0 // the one and only user
	PlaceholderCategory    ID = 0 // "uncategorised"
	TransferCategory       ID = 1 // internal movements
	PlaceholderInstitution ID = 0
	PlaceholderStatement   ID = 0 // manually entered transactions
)

// Collection holds the entities of one kind: an ordered list of IDs and the
// entities indexed by ID.
//
// A Collection reachable from a State is never modified, values returned by
// its methods must be treated as read-only.
type Collection[T any] struct {
	ids  []ID
	byID map[ID]T
	next ID // next ID to allocate, IDs are never reused
}

func newCollection[T any]() *Collection[T] {
	return &Collection[T]{byID: make(map[ID]T), next: 1}
}

// Len returns the number of entities.
func (c *Collection[T]) Len() int { return len(c.ids) }

// IDs returns the IDs in collection order.
func (c *Collection[T]) IDs() []ID { return slices.Clone(c.ids) }

// Get returns the entity with that ID.
func (c *Collection[T]) Get(id ID) (T, bool) {
	v, ok := c.byID[id]
	return v, ok
}

// Has reports whether an entity with that ID exists.
func (c *Collection[T]) Has(id ID) bool {
	_, ok := c.byID[id]
	return ok
}

// All iterates over entities in collection order.
func (c *Collection[T]) All() iter.Seq2[ID, T] {
	return func(yield func(ID, T) bool) {
		for _, id := range c.ids {
			if !yield(id, c.byID[id]) {
				return
			}
		}
	}
}

// NextID returns the ID the next created entity will get.
func (c *Collection[T]) NextID() ID { return c.next }

// Index returns the position of id in the collection order, or -1.
func (c *Collection[T]) Index(id ID) int { return slices.Index(c.ids, id) }

func (c *Collection[T]) clone() *Collection[T] {
	return &Collection[T]{ids: slices.Clone(c.ids), byID: maps.Clone(c.byID), next: c.next}
}

// allocate reserves and returns a new ID.
func (c *Collection[T]) allocate() ID {
	id := c.next
	c.next++
	return id
}

// insert appends a new entity. It panics if the ID is already used.
func (c *Collection[T]) insert(id ID, v T) {
	if _, exists := c.byID[id]; exists {
		panic(fmt.Sprintf("collection: duplicate id %d", id))
	}
	c.ids = append(c.ids, id)
	c.byID[id] = v
	if id >= c.next {
		c.next = id + 1
	}
}

// set replaces an existing entity. It panics if the ID does not exist.
func (c *Collection[T]) set(id ID, v T) {
	if _, exists := c.byID[id]; !exists {
		panic(fmt.Sprintf("collection: set unknown id %d", id))
	}
	c.byID[id] = v
}

// remove deletes an existing entity. It panics if the ID does not exist.
func (c *Collection[T]) remove(id ID) {
	if _, exists := c.byID[id]; !exists {
		panic(fmt.Sprintf("collection: remove unknown id %d", id))
	}
	delete(c.byID, id)
	c.ids = slices.DeleteFunc(c.ids, func(x ID) bool { return x == id })
}

// move places id at position 'to' in the collection order, shifting the others.
func (c *Collection[T]) move(id ID, to int) {
	from := slices.Index(c.ids, id)
	if from < 0 {
		panic(fmt.Sprintf("collection: move unknown id %d", id))
	}
	to = max(0, min(to, len(c.ids)-1))
	c.ids = slices.Delete(c.ids, from, from+1)
	c.ids = slices.Insert(c.ids, to, id)
}

// consistent reports an error if the ID list and the map keys differ.
func (c *Collection[T]) consistent() error {
	if len(c.ids) != len(c.byID) {
		return fmt.Errorf("%d ids for %d entities", len(c.ids), len(c.byID))
	}
	seen := make(map[ID]bool, len(c.ids))
	for _, id := range c.ids {
		if seen[id] {
			return fmt.Errorf("id %d listed twice", id)
		}
		seen[id] = true
		if _, ok := c.byID[id]; !ok {
			return fmt.Errorf("id %d listed without entity", id)
		}
		if id >= c.next {
			return fmt.Errorf("id %d not below next id %d", id, c.next)
		}
	}
	return nil
}
