package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/aretw0/funnel/pkg/ports"
)

// DefaultPixelTimeout bounds one pixel request.
const DefaultPixelTimeout = 3 * time.Second

// Pixel posts events as JSON to a collector endpoint.
type Pixel struct {
	URL    string
	Client *http.Client
}

// NewPixel creates a pixel emitter for url.
func NewPixel(url string) *Pixel {
	return &Pixel{
		URL:    url,
		Client: &http.Client{Timeout: DefaultPixelTimeout},
	}
}

type pixelBody struct {
	Event      string         `json:"event"`
	Attributes map[string]any `json:"attributes,omitempty"`
	SentAt     time.Time      `json:"sent_at"`
}

// Emit sends one event. Any non-2xx answer is an error.
func (p *Pixel) Emit(ctx context.Context, name string, attrs map[string]any) error {
	body, err := json.Marshal(pixelBody{Event: name, Attributes: attrs, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal tracking event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("tracking collector returned %s", resp.Status)
	}
	return nil
}

// Log writes events to a structured logger.
type Log struct {
	Logger *slog.Logger
}

// Emit logs the event at info level.
func (l Log) Emit(ctx context.Context, name string, attrs map[string]any) error {
	args := make([]any, 0, len(attrs)*2+2)
	args = append(args, "event", name)
	for k, v := range attrs {
		args = append(args, k, v)
	}
	l.Logger.InfoContext(ctx, "tracking", args...)
	return nil
}

// Multi emits to every tracker and joins their errors.
type Multi []ports.Tracker

// Emit fans the event out.
func (m Multi) Emit(ctx context.Context, name string, attrs map[string]any) error {
	var errs []error
	for _, t := range m {
		if err := t.Emit(ctx, name, attrs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards everything.
type Nop struct{}

// Emit does nothing.
func (Nop) Emit(context.Context, string, map[string]any) error { return nil }

// DefaultMaskPatterns match the attribute keys that carry contact details.
var DefaultMaskPatterns = []string{`(?i)email`, `(?i)phone`, `(?i)^name$`, `(?i)display_name`}

// Masked replaces the value of every attribute whose key matches a pattern.
type Masked struct {
	next     ports.Tracker
	patterns []*regexp.Regexp
}

// NewMasked wraps next. Patterns are regular expressions over attribute keys.
func NewMasked(next ports.Tracker, patterns []string) (*Masked, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Masked{next: next, patterns: compiled}, nil
}

// Emit masks a copy of attrs and forwards it.
func (m *Masked) Emit(ctx context.Context, name string, attrs map[string]any) error {
	return m.next.Emit(ctx, name, maskMap(attrs, m.patterns))
}

func maskMap(in map[string]any, patterns []*regexp.Regexp) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if sub, ok := v.(map[string]any); ok {
			out[k] = maskMap(sub, patterns)
			continue
		}
		out[k] = v
		for _, p := range patterns {
			if p.MatchString(k) {
				out[k] = "***"
				break
			}
		}
	}
	return out
}
