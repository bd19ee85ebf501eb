package narrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// llmNarrator calls out to a hosted LLM for persona-voiced narration. It
// is stateless: every call builds its own request from the snapshot, no
// conversation history is retained, mirroring the corpus's own AI engine
// adapter.
type llmNarrator struct {
	provider   string
	apiKey     string
	model      string
	apiBaseURL string
	client     *http.Client
}

func newLLMNarrator(provider, apiKey, model, apiBaseURL string) Narrator {
	n := &llmNarrator{
		provider: provider,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	switch provider {
	case "anthropic":
		n.model = defaultIfEmpty(model, "claude-sonnet-4-20250514")
		n.apiBaseURL = defaultIfEmpty(apiBaseURL, "https://api.anthropic.com/v1/messages")
	case "openai":
		n.model = defaultIfEmpty(model, "gpt-4o")
		n.apiBaseURL = defaultIfEmpty(apiBaseURL, "https://api.openai.com/v1/chat/completions")
	case "ollama":
		n.model = defaultIfEmpty(model, "llama3.1")
		n.apiBaseURL = defaultIfEmpty(apiBaseURL, "http://localhost:11434/api/chat")
	}
	return n
}

func (n *llmNarrator) Summarize(ctx context.Context, snap Snapshot) (string, error) {
	prompt := buildPrompt(snap)

	var text string
	var err error
	switch n.provider {
	case "anthropic":
		text, err = n.callAnthropic(ctx, prompt)
	case "openai":
		text, err = n.callOpenAI(ctx, prompt)
	case "ollama":
		text, err = n.callOllama(ctx, prompt)
	default:
		return "", fmt.Errorf("narrator: unknown provider %q", n.provider)
	}
	if err != nil {
		// the LLM path degrades to the deterministic template rather than
		// failing the detective's whole run.
		return NewTemplate().Summarize(ctx, snap)
	}
	return strings.TrimSpace(text), nil
}

func buildPrompt(snap Snapshot) string {
	return fmt.Sprintf(`You are detective persona %q narrating a blockchain wallet risk finding in one or two sentences, in character.
Wallet: %s
Risk level: %s (score %.0f)
Analysis focus: %s
Drivers: %s
Respond with only the narration, no preamble.`,
		snap.Persona, snap.WalletAddress, snap.RiskLevelText, snap.RiskScore, snap.AnalysisFocus, strings.Join(snap.Drivers, ", "))
}

func (n *llmNarrator) callAnthropic(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"model":      n.model,
		"max_tokens": 256,
		"messages":   []map[string]string{{"role": "user", "content": prompt}},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiBaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", n.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic narrator error %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("anthropic narrator: empty response")
	}
	return result.Content[0].Text, nil
}

func (n *llmNarrator) callOpenAI(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"model":      n.model,
		"messages":   []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens": 256,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiBaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai narrator error %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai narrator: empty response")
	}
	return result.Choices[0].Message.Content, nil
}

func (n *llmNarrator) callOllama(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"model":    n.model,
		"messages": []map[string]string{{"role": "user", "content": prompt}},
		"stream":   false,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiBaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	return result.Message.Content, nil
}

func defaultIfEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
