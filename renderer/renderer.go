// Package renderer turns tally states into markdown reports.
package renderer

import (
	"bytes"
	"strings"

	"github.com/etnz/tally"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ToHTML converts a markdown report to HTML.
func ToHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// categoryPath returns the category name prefixed with its ancestors.
func categoryPath(s *tally.State, id tally.ID) string {
	c, ok := s.Categories().Get(id)
	if !ok {
		return "?"
	}
	names := []string{c.Name}
	for _, p := range c.Hierarchy {
		parent, _ := s.Categories().Get(p)
		names = append(names, parent.Name)
	}
	// Hierarchy is nearest parent first.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " / ")
}
