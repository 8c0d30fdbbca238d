package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/bimsrama/relasi4warna/internal/llm"
	"github.com/bimsrama/relasi4warna/internal/llm/mocks"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newGenerator(primary, fallback llm.LLMClient) *llm.FallbackGenerator {
	return llm.NewFallbackGenerator(primary, fallback, "fallback-model", 1024, 0.7, 5*time.Second, newTestLogger())
}

func TestGenerateDraft_PrimarySucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockLLMClient(ctrl)
	fallback := mocks.NewMockLLMClient(ctrl)

	primary.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(&llm.LLMResponse{Content: "a draft"}, nil)
	// Fallback must not be called.

	draft, err := newGenerator(primary, fallback).GenerateDraft(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft != "a draft" {
		t.Errorf("want 'a draft', got %q", draft)
	}
}

func TestGenerateDraft_FallbackAfterPrimaryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockLLMClient(ctrl)
	fallback := mocks.NewMockLLMClient(ctrl)

	primary.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("throttled"))
	fallback.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(&llm.LLMResponse{Content: "fallback draft"}, nil)

	draft, err := newGenerator(primary, fallback).GenerateDraft(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft != "fallback draft" {
		t.Errorf("want 'fallback draft', got %q", draft)
	}
}

func TestGenerateDraft_BothFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockLLMClient(ctrl)
	fallback := mocks.NewMockLLMClient(ctrl)

	// Exactly one call each: no further retries beyond the single fallback.
	primary.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("throttled")).
		Times(1)
	fallback.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("unavailable")).
		Times(1)

	_, err := newGenerator(primary, fallback).GenerateDraft(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected error when both models fail")
	}
}
