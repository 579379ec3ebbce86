package domain

import (
	"encoding/json"
	"reflect"
)

// SessionDiff represents the changes between two snapshots of a session.
// It is serialized to JSON for partial updates on subscribed clients.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentStep *Step   `json:"current_step,omitempty"`
	Location    *string `json:"location,omitempty"`
	Phase       *Phase  `json:"phase,omitempty"`

	// Form contains only changed, added or cleared fields.
	// Cleared fields are present with a nil value.
	Form map[string]any `json:"form,omitempty"`

	Submitting      *bool   `json:"submitting,omitempty"`
	SubmissionError *string `json:"submission_error,omitempty"`

	// History contains steps appended since the old snapshot.
	History []Step `json:"history,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession.
// It returns nil when nothing observable changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	if oldSession == nil || oldSession.CurrentStep != newSession.CurrentStep {
		diff.CurrentStep = &newSession.CurrentStep
	}
	if oldSession == nil || oldSession.Location != newSession.Location {
		diff.Location = &newSession.Location
	}
	if oldSession == nil || oldSession.Phase != newSession.Phase {
		diff.Phase = &newSession.Phase
	}
	if oldSession == nil || oldSession.Submitting != newSession.Submitting {
		diff.Submitting = &newSession.Submitting
	}
	if oldSession == nil || oldSession.SubmissionError != newSession.SubmissionError {
		diff.SubmissionError = &newSession.SubmissionError
	}

	var oldForm *FormData
	if oldSession != nil {
		oldForm = &oldSession.Form
	}
	diff.Form = diffForm(oldForm, &newSession.Form)
	diff.History = diffHistory(oldSession, newSession)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func formFields(f *FormData) map[string]any {
	out := make(map[string]any)
	if f == nil {
		return out
	}
	data, err := json.Marshal(f)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(data, &out)
	return out
}

func diffForm(old, new *FormData) map[string]any {
	before := formFields(old)
	after := formFields(new)
	delta := make(map[string]any)

	for k, v := range after {
		if prev, ok := before[k]; !ok || !reflect.DeepEqual(prev, v) {
			delta[k] = v
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory assumes History is append-only.
func diffHistory(old, new *Session) []Step {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return new.History
	}
	if len(new.History) > len(old.History) {
		return new.History[len(old.History):]
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.CurrentStep == nil &&
		d.Location == nil &&
		d.Phase == nil &&
		d.Submitting == nil &&
		d.SubmissionError == nil &&
		len(d.Form) == 0 &&
		len(d.History) == 0
}
