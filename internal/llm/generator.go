package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// FallbackGenerator produces report drafts, retrying once against a named
// fallback model when the primary call fails or times out. This is the only
// automatic retry in the pipeline.
type FallbackGenerator struct {
	primary       LLMClient
	fallback      LLMClient
	fallbackModel string
	maxTokens     int
	temperature   float64
	timeout       time.Duration
	logger        *zerolog.Logger
}

func NewFallbackGenerator(
	primary, fallback LLMClient,
	fallbackModel string,
	maxTokens int,
	temperature float64,
	timeout time.Duration,
	logger *zerolog.Logger,
) *FallbackGenerator {
	return &FallbackGenerator{
		primary:       primary,
		fallback:      fallback,
		fallbackModel: fallbackModel,
		maxTokens:     maxTokens,
		temperature:   temperature,
		timeout:       timeout,
		logger:        logger,
	}
}

func (g *FallbackGenerator) GenerateDraft(ctx context.Context, promptContext string) (string, error) {
	request := LLMRequest{
		Prompt:      promptContext,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.primary.InvokeModel(callCtx, request)
	if err == nil {
		return resp.Content, nil
	}

	g.logger.Warn().Err(err).Str("fallback_model", g.fallbackModel).Msg("primary model failed, retrying with fallback")

	retryCtx, cancelRetry := context.WithTimeout(ctx, g.timeout)
	defer cancelRetry()

	resp, retryErr := g.fallback.InvokeModel(retryCtx, request)
	if retryErr != nil {
		return "", fmt.Errorf("draft generation failed on both models: %w", retryErr)
	}

	return resp.Content, nil
}
