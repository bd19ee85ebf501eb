// Package config loads the enumerated environment configuration for the
// wallet analytic pipeline, in the spirit of the env-var bootstrap idiom
// used throughout the reference corpus: a single struct populated from
// os.Getenv with typed fallbacks, plus package-level known-address tables
// that can be overridden from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// NarratorProvider selects the detective orchestrator's narrative backend.
type NarratorProvider string

const (
	NarratorTemplate NarratorProvider = "template"
	NarratorAnthropic NarratorProvider = "anthropic"
	NarratorOpenAI   NarratorProvider = "openai"
	NarratorOllama   NarratorProvider = "ollama"
)

// Config holds every tunable described in the external interfaces section:
// RPC endpoints and timeouts, batching and caching knobs, the optional
// regression harness flag, and the optional narrator/façade settings.
type Config struct {
	SolanaRPCURL          string
	SolanaRPCFallbackURLs []string
	SolanaTimeout         time.Duration
	SolanaCommitment      string
	SolanaRetryMax        int
	SolanaRetryBaseMS     int

	SolanaTxBatchSize        int
	SolanaBatchConcurrency   int

	WalletCacheTTL       time.Duration
	WalletCacheMaxWait   time.Duration

	EnableRegressionValidation bool

	NarratorProvider  NarratorProvider
	NarratorAPIKey    string
	NarratorModel     string
	NarratorAPIBaseURL string

	Blacklist          []string
	KnownCEXAddresses   []string
	KnownBridgeAddresses []string
	KnownMixerAddresses []string

	APIAuthToken        string
	APIRateLimitPerMin  int
	APIRateLimitBurst   int
}

// Load reads a local .env file if present (ignored otherwise) and builds a
// Config from the environment, applying the defaults enumerated in the
// external interfaces section.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SolanaRPCURL:          envOr("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		SolanaRPCFallbackURLs: splitTrim(envOr("SOLANA_RPC_FALLBACK_URLS", "")),
		SolanaTimeout:         time.Duration(envInt("SOLANA_TIMEOUT_MS", 30000)) * time.Millisecond,
		SolanaCommitment:      envOr("SOLANA_COMMITMENT", "confirmed"),
		SolanaRetryMax:        envInt("SOLANA_RETRY_MAX", 3),
		SolanaRetryBaseMS:     envInt("SOLANA_RETRY_BASE_MS", 250),

		SolanaTxBatchSize:      envInt("SOLANA_TX_BATCH_SIZE", 20),
		SolanaBatchConcurrency: envInt("SOLANA_BATCH_CONCURRENCY", 4),

		WalletCacheTTL:     time.Duration(envInt("WALLET_CACHE_TTL_S", 300)) * time.Second,
		WalletCacheMaxWait: time.Duration(envInt("WALLET_CACHE_MAX_WAIT_S", 180)) * time.Second,

		EnableRegressionValidation: envOr("ENABLE_REGRESSION_VALIDATION", "false") == "true",

		NarratorProvider:   NarratorProvider(envOr("NARRATOR_PROVIDER", string(NarratorTemplate))),
		NarratorAPIKey:     envOr("NARRATOR_API_KEY", ""),
		NarratorModel:      envOr("NARRATOR_MODEL", ""),
		NarratorAPIBaseURL: envOr("NARRATOR_API_BASE_URL", ""),

		Blacklist:            splitTrim(envOr("DETECTIVE_BLACKLIST", "")),
		KnownCEXAddresses:    splitTrim(envOr("KNOWN_CEX_ADDRESSES", strings.Join(DefaultCEXAddresses, ","))),
		KnownBridgeAddresses: splitTrim(envOr("KNOWN_BRIDGE_ADDRESSES", strings.Join(DefaultBridgeAddresses, ","))),
		KnownMixerAddresses:  splitTrim(envOr("KNOWN_MIXER_ADDRESSES", strings.Join(DefaultMixerAddresses, ","))),

		APIAuthToken:       envOr("API_AUTH_TOKEN", ""),
		APIRateLimitPerMin: envInt("API_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitBurst:  envInt("API_RATE_LIMIT_BURST", 5),
	}

	return cfg, nil
}

// Validate rejects a configuration with no primary RPC endpoint.
func (c *Config) Validate() error {
	if c.SolanaRPCURL == "" {
		return fmt.Errorf("SOLANA_RPC_URL must be set")
	}
	return nil
}

// Endpoints returns the primary RPC URL followed by its fallbacks, in
// provider-pool rotation order.
func (c *Config) Endpoints() []string {
	return append([]string{c.SolanaRPCURL}, c.SolanaRPCFallbackURLs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
