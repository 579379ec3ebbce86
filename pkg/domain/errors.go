package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionClosed is returned when a result arrives for a session that was
// unmounted while the work was in flight. The result has been discarded.
var ErrSessionClosed = errors.New("session closed")

// ErrNotReady is returned when input arrives before campaign data resolved.
var ErrNotReady = errors.New("session is still loading")

// ErrSessionFailed is returned for any input on a session in the error phase.
var ErrSessionFailed = errors.New("session failed to resolve")

// ErrSubmissionInFlight is returned when a submission is already outstanding.
// The request was ignored.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// ErrResolution marks a campaign or product lookup that failed on every surface.
var ErrResolution = errors.New("resolution failed")

// ErrCampaignInactive is returned when a resolved campaign is not running.
var ErrCampaignInactive = errors.New("campaign is not active")

// ErrSubmission marks a review submission that failed on every surface.
var ErrSubmission = errors.New("submission failed")

// ResolutionError describes a lookup that could not be satisfied.
// Transport detail is kept in Cause for logs only.
type ResolutionError struct {
	Op    string
	ID    string
	Cause error
}

func (e *ResolutionError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Op, ErrResolution)
	}
	return fmt.Sprintf("%s %q: %s", e.Op, e.ID, ErrResolution)
}

func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Cause}
}

// SubmissionError describes a submission rejected by every surface.
type SubmissionError struct {
	CampaignID string
	Cause      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("campaign %q: %s", e.CampaignID, ErrSubmission)
}

func (e *SubmissionError) Unwrap() []error {
	return []error{ErrSubmission, e.Cause}
}

// FieldErrors maps a form field to a human-readable reason.
type FieldErrors map[string]string

// ValidationError blocks a forward transition.
type ValidationError struct {
	Step   Step
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("step %d (%s) invalid: %s", e.Step, e.Step, strings.Join(keys, ", "))
}
