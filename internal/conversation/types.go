package conversation

import (
	"context"
	"time"

	"github.com/ziadkadry99/umlgen/internal/apperr"
)

// Phase drives what the next Submit does.
type Phase string

const (
	PhaseAwaitingContext  Phase = "AWAITING_CONTEXT"
	PhaseAwaitingCategory Phase = "AWAITING_CATEGORY"
	PhaseGenerating       Phase = "GENERATING"
	PhaseReady            Phase = "READY"
	PhaseError            Phase = "ERROR"
)

// Category is one entry of the diagram-type menu.
type Category string

const (
	CategoryUseCase    Category = "Use Case Diagram"
	CategoryClass      Category = "Class Diagram"
	CategorySequence   Category = "Sequence Diagram"
	CategoryActivity   Category = "Activity Diagram"
	CategoryComponent  Category = "Component Diagram"
	CategoryDeployment Category = "Deployment Diagram"
	CategoryState      Category = "State Diagram"
	CategoryER         Category = "ER Diagram"
)

// Categories is the closed menu offered after the project context is known.
// Users may still type any free-form instruction instead.
var Categories = []Category{
	CategoryUseCase,
	CategoryClass,
	CategorySequence,
	CategoryActivity,
	CategoryComponent,
	CategoryDeployment,
	CategoryState,
	CategoryER,
}

// Message is one entry of the conversation history.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	FromUser  bool      `json:"from_user"`
	Timestamp time.Time `json:"timestamp"`
}

// State is a snapshot of a conversation. Snapshots are copies; mutating one
// does not affect the Controller.
type State struct {
	SessionID       string        `json:"session_id"`
	Credential      string        `json:"-"`
	HasCredential   bool          `json:"has_credential"`
	ProjectContext  string        `json:"project_context"`
	DiagramCategory string        `json:"diagram_category"`
	Phase           Phase         `json:"phase"`
	Markup          string        `json:"markup"`
	History         []Message     `json:"history"`
	LastError       *apperr.Error `json:"last_error,omitempty"`
	// Version increases on every mutation, including Reset.
	Version uint64 `json:"version"`
}

// Effect describes what a Submit call set in motion.
type Effect int

const (
	EffectNone Effect = iota
	EffectCredentialRequired
	EffectPromptCategory
	EffectGenerate
)

func (e Effect) String() string {
	switch e {
	case EffectCredentialRequired:
		return "credential_required"
	case EffectPromptCategory:
		return "prompt_category"
	case EffectGenerate:
		return "generate"
	default:
		return "none"
	}
}

// EventType distinguishes listener notifications.
type EventType string

const (
	EventStateChanged       EventType = "state"
	EventCredentialRequired EventType = "credential_required"
)

// Event is delivered to subscribers after every mutation.
type Event struct {
	Type  EventType
	State State
}

// Gateway requests diagram markup from a language model. Implementations make
// a single attempt and fail with apperr.KindAuthFailure for rejected
// credentials; any other failure is reported as a generation failure.
type Gateway interface {
	Generate(ctx context.Context, credential, projectContext, instruction string) (string, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, credential, projectContext, instruction string) (string, error)

func (f GatewayFunc) Generate(ctx context.Context, credential, projectContext, instruction string) (string, error) {
	return f(ctx, credential, projectContext, instruction)
}

// TurnResult summarizes one resolved generation turn.
type TurnResult struct {
	SessionID      string
	ProjectContext string
	Instruction    string
	Markup         string
	Err            *apperr.Error
	Duration       time.Duration
}

// Observer is told about every generation turn that was not superseded.
type Observer interface {
	TurnCompleted(ctx context.Context, result TurnResult)
}
