package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(0)
	require.NoError(t, err)

	out, err := render("# Tell us how it went\n\nPick the **product** you bought.")
	require.NoError(t, err)
	assert.Contains(t, out, "Tell us how it went")
	assert.Contains(t, out, "product")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	// A buffer is not a terminal, so no escape sequences are written.
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Equal(t, len(bannerLines)+2, strings.Count(buf.String(), "\n"))
}

func TestNotice(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, ">>> saved", Notice(&buf, "saved"))
}
