package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolutionError_Is(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := error(&ResolutionError{Op: "campaign", ID: "c1", Cause: cause})

	assert.ErrorIs(t, err, ErrResolution)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrSubmission)
	assert.Equal(t, `campaign "c1": resolution failed`, err.Error())
}

func TestSubmissionError_Is(t *testing.T) {
	err := error(&SubmissionError{CampaignID: "c1"})
	assert.ErrorIs(t, err, ErrSubmission)
	assert.NotErrorIs(t, err, ErrResolution)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Step: StepContactInfo, Fields: FieldErrors{"email": "required", "name": "required"}}
	assert.Equal(t, "step 2 (contact_info) invalid: email, name", err.Error())

	var target *ValidationError
	assert.True(t, errors.As(error(err), &target))
}
