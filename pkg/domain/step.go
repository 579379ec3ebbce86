package domain

import (
	"strconv"
	"strings"
)

// Step identifies one screen of the funnel.
type Step int

const (
	StepSelectTarget Step = 1 // Choose product or seller, marketplace, order, rating
	StepContactInfo  Step = 2 // Display name, email, phone
	StepFeedback     Step = 3 // Free-text feedback, submission happens when leaving it
	StepDisclosure   Step = 4 // Reward disclosure and optional share invitation
)

// FirstStep and LastStep bound the valid step range.
const (
	FirstStep = StepSelectTarget
	LastStep  = StepDisclosure
)

// Valid reports whether s lies inside the funnel.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Clamp returns s when it is valid and FirstStep otherwise.
func (s Step) Clamp() Step {
	if !s.Valid() {
		return FirstStep
	}
	return s
}

// Next returns the step after s, saturating at LastStep.
func (s Step) Next() Step {
	if s >= LastStep {
		return LastStep
	}
	return s.Clamp() + 1
}

// Prev returns the step before s, saturating at FirstStep.
func (s Step) Prev() Step {
	if s <= FirstStep {
		return FirstStep
	}
	return s.Clamp() - 1
}

func (s Step) String() string {
	switch s {
	case StepSelectTarget:
		return "select_target"
	case StepContactInfo:
		return "contact_info"
	case StepFeedback:
		return "feedback"
	case StepDisclosure:
		return "disclosure"
	default:
		return "step_" + strconv.Itoa(int(s))
	}
}

// ParseStep decodes a step segment. Empty, non-numeric and out-of-range
// values all canonicalize to FirstStep.
func ParseStep(raw string) Step {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return FirstStep
	}
	return Step(n).Clamp()
}
