package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStep(t *testing.T) {
	tests := []struct {
		raw  string
		want Step
	}{
		{"1", StepSelectTarget},
		{"2", StepContactInfo},
		{"3", StepFeedback},
		{"4", StepDisclosure},
		{"", StepSelectTarget},
		{"0", StepSelectTarget},
		{"5", StepSelectTarget},
		{"-2", StepSelectTarget},
		{"two", StepSelectTarget},
		{" 3 ", StepFeedback},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStep(tt.raw))
		})
	}
}

func TestStep_NextPrev(t *testing.T) {
	assert.Equal(t, StepContactInfo, StepSelectTarget.Next())
	assert.Equal(t, StepDisclosure, StepDisclosure.Next())
	assert.Equal(t, StepFeedback, StepDisclosure.Prev())
	assert.Equal(t, StepSelectTarget, StepSelectTarget.Prev())
}

func TestLocation_RoundTrip(t *testing.T) {
	for step := FirstStep; step <= LastStep; step++ {
		loc := Location("camp-1", step)
		id, got, ok := ParseLocation(loc)
		assert.True(t, ok)
		assert.Equal(t, "camp-1", id)
		assert.Equal(t, step, got)
		assert.True(t, IsCanonical(loc))
	}
}

func TestParseLocation_Canonicalizes(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantID   string
		wantStep Step
		wantOK   bool
	}{
		{"No step segment", "/review/camp-1", "camp-1", StepSelectTarget, true},
		{"Trailing slash", "/review/camp-1/", "camp-1", StepSelectTarget, true},
		{"Empty step", "/review/camp-1/step/", "camp-1", StepSelectTarget, true},
		{"Out of range", "/review/camp-1/step/9", "camp-1", StepSelectTarget, true},
		{"Non numeric", "/review/camp-1/step/abc", "camp-1", StepSelectTarget, true},
		{"With query", "/review/camp-1/step/3?utm=qr", "camp-1", StepFeedback, true},
		{"Escaped id", "/review/camp%201/step/2", "camp 1", StepContactInfo, true},
		{"Foreign path", "/dashboard", "", StepSelectTarget, false},
		{"Missing id", "/review/", "", StepSelectTarget, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, step, ok := ParseLocation(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantStep, step)
		})
	}

	assert.False(t, IsCanonical("/review/camp-1"))
	assert.False(t, IsCanonical("/review/camp-1/step/7"))
}
