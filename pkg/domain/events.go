package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter EventType = "step_enter"
	EventStepLeave EventType = "step_leave"
	EventResolve   EventType = "resolve"
)

// Tracking event names emitted to the external tracker.
const (
	TrackStepCompleted  = "step_completed"
	TrackReviewRecorded = "review_recorded"
	TrackShareOpened    = "share_opened"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry or exit from a step.
type StepEvent struct {
	EventBase
	CampaignID string `json:"campaign_id"`
	Step       Step   `json:"step"`
}

// ResolveEvent reports how a dual-source lookup was satisfied.
type ResolveEvent struct {
	EventBase
	Op      string `json:"op"`
	Outcome string `json:"outcome"`
}

// LifecycleHooks defines callbacks for local observability. They run
// synchronously and must not block.
type LifecycleHooks struct {
	OnStepEnter func(context.Context, *StepEvent)
	OnStepLeave func(context.Context, *StepEvent)
	OnResolve   func(context.Context, *ResolveEvent)
}
