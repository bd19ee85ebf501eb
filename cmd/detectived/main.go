package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ghosthunter/detective/internal/analysiscache"
	"github.com/ghosthunter/detective/internal/api"
	"github.com/ghosthunter/detective/internal/config"
	"github.com/ghosthunter/detective/internal/detective"
	"github.com/ghosthunter/detective/internal/narrator"
	"github.com/ghosthunter/detective/internal/pipeline"
	"github.com/ghosthunter/detective/internal/solanarpc"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	pool := solanarpc.NewPool(cfg.Endpoints(), cfg.SolanaTimeout, cfg.SolanaRetryMax, cfg.SolanaRetryBaseMS)
	reader := solanarpc.NewReader(pool, solanarpc.Commitment(cfg.SolanaCommitment), cfg.SolanaTxBatchSize, cfg.SolanaBatchConcurrency)
	cache := analysiscache.New(cfg.WalletCacheTTL, cfg.WalletCacheMaxWait)
	known := config.NewStaticKnownAddresses(cfg)
	blacklist := config.NewStaticBlacklist(cfg)

	snapshots := pipeline.New(reader, pool, cache, known, blacklist, cfg.EnableRegressionValidation)
	narrate := narrator.New(string(cfg.NarratorProvider), cfg.NarratorAPIKey, cfg.NarratorModel, cfg.NarratorAPIBaseURL)
	orchestrator := detective.New(snapshots, narrate, len(detective.Personas))

	handler := api.NewHandler(orchestrator)
	router := api.SetupRouter(handler, cfg.APIAuthToken, cfg.APIRateLimitPerMin, cfg.APIRateLimitBurst)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Str("rpc_primary", cfg.SolanaRPCURL).Msg("detective façade starting")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
