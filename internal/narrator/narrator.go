// Package narrator turns a detective's shared analytic snapshot into a
// short persona-voiced conclusion. It generalizes the corpus's stateless
// LLM-adapter idiom (provider-switched HTTP calls behind one interface)
// from social-post analysis into wallet-investigation narration, and
// defaults to a deterministic template so the orchestrator never depends
// on an external API key to produce a result.
package narrator

import "context"

// Snapshot is the subset of a detective's analysis a narrator summarizes.
// It intentionally carries only plain values (no cache/graph handles) so
// narrators stay stateless and side-effect free.
type Snapshot struct {
	WalletAddress    string
	Persona          string
	AnalysisFocus    string
	RiskScore        float64
	RiskLevelText    string
	Drivers          []string
	LinkedAddresses  []string
	TaintHighCount   int
	IntegrationTypes []string
}

// Narrator produces a short narrative conclusion for one detective's run
// over a shared snapshot.
type Narrator interface {
	Summarize(ctx context.Context, snap Snapshot) (string, error)
}

// New selects a Narrator implementation by provider name, following the
// corpus's own provider-switch idiom (anthropic/openai/ollama). An unknown
// or empty provider, or anthropic/openai without an API key, falls back to
// the deterministic template so narration never blocks on credentials;
// ollama needs no key.
func New(provider, apiKey, model, apiBaseURL string) Narrator {
	switch provider {
	case "anthropic", "openai", "ollama":
		if apiKey == "" && provider != "ollama" {
			return NewTemplate()
		}
		return newLLMNarrator(provider, apiKey, model, apiBaseURL)
	default:
		return NewTemplate()
	}
}
