package runner

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
)

// Prompt asks for one form field.
type Prompt struct {
	Field   string   `json:"field"`
	Label   string   `json:"label"`
	Current string   `json:"current,omitempty"`
	Options []string `json:"options,omitempty"`
	// Optional prompts accept an empty answer.
	Optional bool `json:"optional,omitempty"`
}

// IOHandler defines the strategy for interacting with the customer.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the active view.
	Output(ctx context.Context, view domain.View) error

	// Input asks for one field and returns the raw answer.
	Input(ctx context.Context, prompt Prompt) (string, error)

	// SystemOutput presents a meta-message (validation problems, share
	// links, status updates). This is distinct from view rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// Funnel is the part of the Engine the runner drives.
type Funnel interface {
	Mount(ctx context.Context, viewer domain.Viewer, campaignID string) (*domain.Session, error)
	View(ctx context.Context, id string) (domain.View, error)
	Update(ctx context.Context, id string, patch domain.FormPatch) (*domain.Session, error)
	Advance(ctx context.Context, viewer domain.Viewer, id string) (*domain.Session, error)
	Back(ctx context.Context, id string) (*domain.Session, error)
	Share(ctx context.Context, id string) (domain.ShareDecision, error)
	Unmount(ctx context.Context, id string) error
}

// ContentRenderer transforms markdown before it is written out.
// This allows terminal styling without coupling the core package.
type ContentRenderer func(string) (string, error)
