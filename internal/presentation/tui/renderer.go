// Package tui styles the terminal funnel.
package tui

import (
	"github.com/aretw0/funnel/pkg/runner"
	"github.com/charmbracelet/glamour"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// NewRenderer returns a runner.ContentRenderer backed by glamour. The style
// follows the terminal background. A width of zero or less uses DefaultWidth.
func NewRenderer(width int) (runner.ContentRenderer, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}
