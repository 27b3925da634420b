package tally

import (
	"slices"
	"testing"
)

func TestCollection(t *testing.T) {
	c := newCollection[string]()
	for _, v := range []string{"a", "b", "c"} {
		c.insert(c.allocate(), v)
	}
	if got := c.IDs(); !slices.Equal(got, []ID{1, 2, 3}) {
		t.Fatalf("IDs() = %v, want [1 2 3]", got)
	}

	c.remove(3)
	if id := c.allocate(); id != 4 {
		t.Errorf("allocate() after removing the last ID = %d, want 4", id)
	}

	c.move(1, 10)
	if got := c.IDs(); !slices.Equal(got, []ID{2, 1}) {
		t.Errorf("IDs() after move = %v, want [2 1]", got)
	}
	if got := c.Index(1); got != 1 {
		t.Errorf("Index(1) = %d, want 1", got)
	}

	clone := c.clone()
	clone.set(2, "B")
	if v, _ := c.Get(2); v != "b" {
		t.Errorf("clone modified the original: %q", v)
	}
	if err := c.consistent(); err != nil {
		t.Errorf("consistent() = %v", err)
	}

	c.byID[9] = "orphan"
	if err := c.consistent(); err == nil {
		t.Errorf("consistent() accepted an orphan entity")
	}
}

func TestCollection_Panics(t *testing.T) {
	testCases := []struct {
		name string
		f    func(c *Collection[int])
	}{
		{"insert duplicate", func(c *Collection[int]) { c.insert(1, 0) }},
		{"set unknown", func(c *Collection[int]) { c.set(5, 0) }},
		{"remove unknown", func(c *Collection[int]) { c.remove(5) }},
		{"move unknown", func(c *Collection[int]) { c.move(5, 0) }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newCollection[int]()
			c.insert(1, 1)
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic", tc.name)
				}
			}()
			tc.f(c)
		})
	}
}
