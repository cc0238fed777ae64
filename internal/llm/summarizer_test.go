package llm

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/avolkov/mdex/internal/model"
)

// MockProvider implements the Provider interface for testing.
type MockProvider struct {
	name      string
	available bool
	response  *SummarizeResponse
	err       error
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func TestNewSummarizer_Disabled(t *testing.T) {
	summarizer, err := NewSummarizer(model.LLMConfig{}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summarizer.IsEnabled() {
		t.Error("expected summarizer to be disabled")
	}
	if summarizer.ProviderName() != "" {
		t.Error("expected empty provider name when disabled")
	}

	summary, err := summarizer.Summarize(context.Background(), testFiling(), "text")
	if err != nil || summary != nil {
		t.Errorf("disabled summarizer must return (nil, nil), got %v, %v", summary, err)
	}
}

func TestSummarizer_ProviderUnavailable(t *testing.T) {
	summarizer := &Summarizer{
		provider: &MockProvider{name: "test-provider", available: false},
		log:      zap.NewNop(),
	}

	summary, err := summarizer.Summarize(context.Background(), testFiling(), "text")
	if err != nil {
		t.Errorf("unavailable provider must not error, got %v", err)
	}
	if summary != nil {
		t.Error("expected nil summary when provider unavailable")
	}
}

func TestSummarizer_Success(t *testing.T) {
	summarizer := &Summarizer{
		provider: &MockProvider{
			name:      "test-provider",
			available: true,
			response: &SummarizeResponse{
				Summary:    "Revenue grew on volume.",
				Model:      "test-model",
				TokensUsed: 17,
			},
		},
		log: zap.NewNop(),
	}

	summary, err := summarizer.Summarize(context.Background(), testFiling(), "Revenue grew.")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary == nil {
		t.Fatal("expected summary")
	}
	if summary.Provider != "test-provider" || summary.Model != "test-model" {
		t.Errorf("summary = %+v", summary)
	}
	if summary.TokensUsed != 17 {
		t.Errorf("tokens = %d", summary.TokensUsed)
	}
}

func TestSummarizer_ProviderError(t *testing.T) {
	summarizer := &Summarizer{
		provider: &MockProvider{
			name:      "test-provider",
			available: true,
			err:       errors.New("rate limited"),
		},
		log: zap.NewNop(),
	}

	if _, err := summarizer.Summarize(context.Background(), testFiling(), "text"); err == nil {
		t.Error("expected provider error to surface")
	}
}
