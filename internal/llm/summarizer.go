package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/avolkov/mdex/internal/model"
)

// Summarizer wraps a Provider with availability checks and graceful
// degradation: when disabled or unreachable it produces no summary and
// no error, so extraction output is unaffected.
type Summarizer struct {
	provider Provider
	config   model.LLMConfig
	log      *zap.Logger
}

// NewSummarizer creates a summarizer from configuration. With no provider
// configured the summarizer is valid but disabled.
func NewSummarizer(config model.LLMConfig, log *zap.Logger) (*Summarizer, error) {
	if log == nil {
		log = zap.NewNop()
	}

	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	return &Summarizer{
		provider: provider,
		config:   config,
		log:      log,
	}, nil
}

// IsEnabled reports whether a provider is configured.
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider's name, or "".
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// Summarize generates a summary for an extracted section. It returns
// (nil, nil) when the summarizer is disabled or the provider is
// unreachable; extraction must not fail because a summary could not be
// produced.
func (s *Summarizer) Summarize(ctx context.Context, filing model.Filing, sectionText string) (*model.SummaryResult, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		s.log.Warn("LLM provider not available, skipping summary",
			zap.String("provider", s.provider.Name()))
		return nil, nil
	}

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Filing:      filing,
		SectionText: sectionText,
		Model:       s.config.Model,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	return &model.SummaryResult{
		Provider:   s.provider.Name(),
		Model:      resp.Model,
		Text:       resp.Summary,
		TokensUsed: resp.TokensUsed,
	}, nil
}
