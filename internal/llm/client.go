package llm

import (
	"context"
)

// LLMClient is an interface for invoking LLM models
// This allows mocking in tests without making real API calls
type LLMClient interface {
	InvokeModel(ctx context.Context, request LLMRequest) (*LLMResponse, error)
}

// DraftGenerator is the contract the pipeline consumes from the AI
// collaborator: an opaque call producing a report draft.
type DraftGenerator interface {
	GenerateDraft(ctx context.Context, promptContext string) (string, error)
}
