package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/avolkov/mdex/internal/model"
)

func testFiling() model.Filing {
	return model.Filing{
		CIK:         "0000320193",
		CompanyName: "Apple Inc",
		FormType:    model.Form10K,
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(model.LLMConfig{Provider: ""})
	if err != nil || p != nil {
		t.Errorf("empty provider should disable summarization, got %v, %v", p, err)
	}

	if _, err := NewProvider(model.LLMConfig{Provider: "bedrock"}); err == nil {
		t.Error("expected error for unknown provider")
	}

	if _, err := NewProvider(model.LLMConfig{Provider: "openai"}); err == nil {
		t.Error("expected error for openai without API key")
	}

	p, err = NewProvider(model.LLMConfig{Provider: "ollama", Model: "llama3.1"})
	if err != nil || p == nil {
		t.Fatalf("ollama provider: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Name = %q", p.Name())
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(testFiling(), "Revenue increased 5% to $400 million.")
	if !strings.Contains(prompt, "Apple Inc") {
		t.Error("prompt missing company name")
	}
	if !strings.Contains(prompt, "$400 million") {
		t.Error("prompt missing section text")
	}
}

func TestBuildPromptTruncatesLongSections(t *testing.T) {
	long := strings.Repeat("results of operations ", 5000)
	prompt := BuildPrompt(testFiling(), long)
	if len(prompt) > maxPromptChars+2000 {
		t.Errorf("prompt not truncated, len = %d", len(prompt))
	}
	if !strings.Contains(prompt, "[... text truncated ...]") {
		t.Error("missing truncation marker")
	}
}

func TestOllamaProvider_Summarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("expected path /api/generate, got %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("expected non-streaming request")
		}
		resp := ollamaResponse{
			Model:           "llama3.1",
			Response:        "Revenue grew on services strength; liquidity remains ample.",
			Done:            true,
			PromptEvalCount: 10,
			EvalCount:       20,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(model.LLMConfig{
		BaseURL: server.URL,
		Model:   "llama3.1",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}

	resp, err := provider.Summarize(context.Background(), SummarizeRequest{
		Filing:      testFiling(),
		SectionText: "Revenue increased.",
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.Contains(resp.Summary, "Revenue grew") {
		t.Errorf("summary = %q", resp.Summary)
	}
	if resp.TokensUsed != 30 {
		t.Errorf("tokens = %d, want 30", resp.TokensUsed)
	}
}

func TestOllamaProvider_RequiresModel(t *testing.T) {
	provider, err := NewOllamaProvider(model.LLMConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := provider.Summarize(context.Background(), SummarizeRequest{Filing: testFiling()}); err == nil {
		t.Error("expected error without model name")
	}
}

func TestOllamaProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "model not found"})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(model.LLMConfig{BaseURL: server.URL, Model: "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := provider.Summarize(context.Background(), SummarizeRequest{Filing: testFiling()}); err == nil {
		t.Error("expected API error")
	} else if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("error = %v", err)
	}
}

func TestOpenAIProvider_Summarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected path /chat/completions, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: "Margins compressed on input costs.",
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 42},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(model.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}

	resp, err := provider.Summarize(context.Background(), SummarizeRequest{
		Filing:      testFiling(),
		SectionText: "Costs rose.",
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if resp.Summary != "Margins compressed on input costs." {
		t.Errorf("summary = %q", resp.Summary)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("tokens = %d, want 42", resp.TokensUsed)
	}
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(model.LLMConfig{}); err == nil {
		t.Error("expected error without API key")
	}
}
