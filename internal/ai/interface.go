package ai

import (
	"context"
)

// LLMProvider defines the contract for interacting with AI models.
type LLMProvider interface {
	// SuggestTip writes one short, actionable tip for the courier's dashboard
	// from their recent activity.
	SuggestTip(ctx context.Context, in TipContext) (*TipResult, error)
}
