package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/tally/renderer"
)

// printMarkdown prints a markdown report in the configured style.
func printMarkdown(md string) {
	switch style {
	case "raw":
		fmt.Print(md)
	case "html":
		html, err := renderer.ToHTML(md)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error converting to HTML: %v\n", err)
			fmt.Print(md)
			return
		}
		fmt.Print(html)
	default:
		out, err := glamour.Render(md, style)
		if err != nil {
			// Unknown style, or rendering error: fall back to the markdown itself.
			fmt.Fprintf(os.Stderr, "Warning: could not render markdown: %v\n", err)
			fmt.Print(md)
			return
		}
		fmt.Print(out)
	}
}
