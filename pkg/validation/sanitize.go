package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/funnel/pkg/domain"
)

// DefaultMaxInputSize is the largest accepted value for one field, in bytes.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return. Oversized input is
// rejected, never truncated. A limit of zero or less uses the default.
func SanitizeInput(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: nothing to strip.
	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

// SanitizePatch cleans every text field of a patch. The error names the
// offending field.
func SanitizePatch(p domain.FormPatch, limit int) (domain.FormPatch, error) {
	fields := []struct {
		name string
		v    **string
	}{
		{"target", &p.Target},
		{"marketplace", &p.Marketplace},
		{"order_id", &p.OrderID},
		{"name", &p.Name},
		{"email", &p.Email},
		{"phone", &p.Phone},
		{"feedback", &p.Feedback},
	}
	for _, f := range fields {
		if *f.v == nil {
			continue
		}
		clean, err := SanitizeInput(**f.v, limit)
		if err != nil {
			return domain.FormPatch{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.v = &clean
	}
	return p, nil
}
