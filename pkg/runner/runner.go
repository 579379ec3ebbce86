package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/funnel/internal/dto"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
)

// Commands accepted at any prompt.
const (
	CommandBack = ":back"
	CommandQuit = ":quit"
)

// Runner handles the prompt loop of one funnel session.
type Runner struct {
	funnel  Funnel
	handler IOHandler
	viewer  domain.Viewer
	logger  *slog.Logger
	keep    bool
}

type action int

const (
	actionAdvance action = iota
	actionRetry
	actionBack
	actionQuit
)

// New creates a Runner over f. Without WithHandler it reads stdin and
// writes stdout.
func New(f Funnel, opts ...Option) *Runner {
	r := &Runner{
		funnel: f,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run mounts a session for campaignID and drives it until the disclosure
// step, the error screen, ":quit" or the end of input. The session is
// unmounted on return unless WithKeepSession was set.
func (r *Runner) Run(ctx context.Context, campaignID string) error {
	s, err := r.funnel.Mount(ctx, r.viewer, campaignID)
	if err != nil {
		return fmt.Errorf("failed to open campaign: %w", err)
	}
	r.logger.Debug("Runner session mounted", "session_id", s.ID, "campaign_id", campaignID)

	if !r.keep {
		defer func() {
			if err := r.funnel.Unmount(context.WithoutCancel(ctx), s.ID); err != nil {
				r.logger.Debug("Unmount failed", "session_id", s.ID, "err", err)
			}
		}()
	}

	for {
		view, err := r.funnel.View(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if err := r.handler.Output(ctx, view); err != nil {
			return fmt.Errorf("output error: %w", err)
		}

		switch view.Kind {
		case domain.ViewError:
			return fmt.Errorf("%w: %s", domain.ErrSessionFailed, view.Error.Message)
		case domain.ViewDisclosure:
			return r.offerShare(ctx, s.ID, view.Disclosure.Share)
		case domain.ViewLoading:
			return domain.ErrNotReady
		}

		next, err := r.collect(ctx, s.ID, Prompts(view))
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch next {
		case actionQuit:
			return nil
		case actionBack:
			if _, err := r.funnel.Back(ctx, s.ID); err != nil {
				return fmt.Errorf("navigation error: %w", err)
			}
		case actionAdvance:
			if err := r.advance(ctx, s.ID); err != nil {
				return err
			}
		}
	}
}

// collect asks every prompt of the step and applies the answers as one
// patch. An empty answer keeps the current value.
func (r *Runner) collect(ctx context.Context, id string, prompts []Prompt) (action, error) {
	answers := make(map[string]any, len(prompts))
	for _, p := range prompts {
		raw, err := r.handler.Input(ctx, p)
		if err != nil {
			return actionQuit, err
		}
		answer := strings.TrimSpace(raw)

		switch strings.ToLower(answer) {
		case CommandBack:
			return actionBack, nil
		case CommandQuit, "exit", "quit":
			return actionQuit, nil
		case "":
			continue
		}
		answers[p.Field] = resolveOption(p, answer)
	}

	patch, err := dto.DecodePatch(answers)
	if err != nil {
		r.logger.Debug("Answers rejected", "err", err)
		return actionRetry, r.handler.SystemOutput(ctx, "Some answers could not be read. Please try again.")
	}
	if patch.Empty() {
		return actionAdvance, nil
	}
	if _, err := r.funnel.Update(ctx, id, patch); err != nil {
		if isInputError(err) {
			return actionRetry, r.handler.SystemOutput(ctx, err.Error())
		}
		return actionQuit, fmt.Errorf("update error: %w", err)
	}
	return actionAdvance, nil
}

// advance reports validation and submission failures to the customer and
// only returns errors the loop cannot recover from.
func (r *Runner) advance(ctx context.Context, id string) error {
	_, err := r.funnel.Advance(ctx, r.viewer, id)
	if err == nil {
		return nil
	}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]string, 0, len(verr.Fields))
		for field := range verr.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			if err := r.handler.SystemOutput(ctx, verr.Fields[field]); err != nil {
				return err
			}
		}
		return nil
	case errors.Is(err, domain.ErrSubmission):
		// The feedback view carries the retryable message.
		r.logger.Debug("Submission failed", "session_id", id, "err", err)
		return nil
	default:
		return fmt.Errorf("navigation error: %w", err)
	}
}

func (r *Runner) offerShare(ctx context.Context, id string, share domain.ShareDecision) error {
	if !share.Enabled {
		return nil
	}

	answer, err := r.handler.Input(ctx, Prompt{
		Field:    "share",
		Label:    fmt.Sprintf("Open %s to share your review? (y/n)", share.Domain),
		Options:  []string{"y", "n"},
		Optional: true,
	})
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
	default:
		return nil
	}

	decision, err := r.funnel.Share(ctx, id)
	if err != nil {
		return fmt.Errorf("share error: %w", err)
	}
	return r.handler.SystemOutput(ctx, "Paste your feedback here: "+decision.URL)
}

func isInputError(err error) bool {
	return !errors.Is(err, domain.ErrSessionNotFound) &&
		!errors.Is(err, domain.ErrSessionClosed) &&
		!errors.Is(err, domain.ErrSessionFailed)
}
