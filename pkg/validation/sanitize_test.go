package validation

import (
	"strings"
	"testing"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", DefaultMaxInputSize - 1, false},
		{"Exact Limit", DefaultMaxInputSize, false},
		{"Over Limit", DefaultMaxInputSize + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeInput(strings.Repeat("a", tt.size), 0)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeInput_CustomLimit(t *testing.T) {
	_, err := SanitizeInput("12345678901", 10)
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = SanitizeInput("12345", 10)
	assert.NoError(t, err)
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Normal Text", "Hello World", "Hello World"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98", 0)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitizePatch(t *testing.T) {
	name := "Ada\x00"
	feedback := "line one\nline two\x07"
	rating := 5

	p, err := SanitizePatch(domain.FormPatch{Name: &name, Feedback: &feedback, Rating: &rating}, 0)
	require.NoError(t, err)
	assert.Equal(t, "Ada", *p.Name)
	assert.Equal(t, "line one\nline two", *p.Feedback)
	assert.Equal(t, 5, *p.Rating)
	assert.Nil(t, p.Email)

	big := strings.Repeat("x", 20)
	_, err = SanitizePatch(domain.FormPatch{Email: &big}, 10)
	assert.ErrorIs(t, err, ErrInputTooLarge)
	assert.ErrorContains(t, err, "email")
}
