// Package llm generates optional summaries of extracted sections. It runs
// strictly after extraction: a summarizer failure never fails a filing,
// and summaries never feed back into detection.
package llm

import (
	"context"
	"fmt"

	"github.com/avolkov/mdex/internal/model"
)

// Provider defines the interface for summary backends.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Summarize generates a summary of one extracted section.
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for summarization.
type SummarizeRequest struct {
	// Filing identifies the company and period being summarized.
	Filing model.Filing

	// SectionText is the extracted discussion-and-analysis text. Long
	// sections are truncated before prompting; see maxPromptChars.
	SectionText string

	// Prompt overrides the default prompt when non-empty.
	Prompt string

	// Model is the specific model to use (provider-specific).
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// SummarizeResponse contains the summarizer output.
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// maxPromptChars bounds how much section text goes into the prompt.
// Roughly 6000 tokens of content, which fits every supported model.
const maxPromptChars = 24000

// BuildPrompt constructs the default summarization prompt. The
// instructions pin the model to the supplied text so figures are never
// invented.
func BuildPrompt(filing model.Filing, sectionText string) string {
	if len(sectionText) > maxPromptChars {
		sectionText = sectionText[:maxPromptChars] + "\n[... text truncated ...]"
	}

	return fmt.Sprintf(`You are summarizing the Management's Discussion and Analysis section of a SEC filing.

RULES:
1. Use ONLY the text provided below. Do not add outside knowledge about the company.
2. Quote financial figures exactly as written; never compute or estimate new ones.
3. If the text does not cover a topic, omit it rather than speculate.

Filing:
- Company: %s
- CIK: %s
- Form: %s

Section text:
---
%s
---

Provide a 4-6 sentence summary covering results of operations, liquidity, and any risks or trends management highlights.`,
		filing.CompanyName, filing.CIK, filing.FormType, sectionText)
}

const systemPrompt = "You are a careful financial analyst who summarizes SEC filing sections using only the provided text."
