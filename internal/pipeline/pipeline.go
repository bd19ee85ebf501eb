// Package pipeline wires the chain reader, parser and every analysis
// stage (C2 through C11) behind the shared analysis cache (C3) into one
// per-wallet Snapshot, matching the spec's data flow
// C1→C2→C4→(C5→C6→C7→C8→C9→C10)→C11.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ghosthunter/detective/internal/analysiscache"
	"github.com/ghosthunter/detective/internal/config"
	"github.com/ghosthunter/detective/internal/entity"
	"github.com/ghosthunter/detective/internal/evidence"
	"github.com/ghosthunter/detective/internal/flow"
	"github.com/ghosthunter/detective/internal/graph"
	"github.com/ghosthunter/detective/internal/influence"
	"github.com/ghosthunter/detective/internal/parser"
	"github.com/ghosthunter/detective/internal/risk"
	"github.com/ghosthunter/detective/internal/solanarpc"
	"github.com/ghosthunter/detective/internal/stageerr"
	"github.com/ghosthunter/detective/internal/taint"
	"github.com/ghosthunter/detective/pkg/models"
)

const (
	defaultSampleDepth = 50
	taintAlpha         = 0.85
	evidenceK          = 3
	highTaintThreshold = 0.1
)

// Snapshot is the C3-cached base analysis for one wallet: the output of
// every downstream stage, each degrading gracefully rather than aborting
// the whole computation when its own input is insufficient.
type Snapshot struct {
	WalletAddress   string
	ComputedAt      time.Time
	Depth           int
	Identity        models.AccountIdentity
	Signatures      []models.SignatureRecord
	ParsedTxs       []models.ParsedTransaction
	DataQuality     models.DataQuality
	Edges           []models.Edge
	GraphStats      models.GraphStats
	TaintResults    []models.TaintResult
	TaintMetrics    models.TaintMetrics
	Clusters        []models.Cluster
	Integrations    []models.IntegrationEvent
	EvidencePaths   []models.EvidencePath
	FlowAttribution models.FlowAttributionResult
	Influence       models.InfluenceSummary
	RPCMetrics      solanarpc.PoolMetrics
	Risk            models.RiskAssessment
	// CounterpartyIdentities resolves every non-wallet address touched by
	// Edges to its on-chain identity, letting callers split linked wallet
	// addresses from program/token-mint addresses.
	CounterpartyIdentities map[string]models.AccountIdentity
}

// Pipeline produces Snapshots, coalescing concurrent requests for the
// same wallet via the shared cache.
type Pipeline struct {
	reader           *solanarpc.Reader
	pool             *solanarpc.Pool
	cache            *analysiscache.Cache
	known            config.KnownAddressProvider
	blacklist        config.BlacklistProvider
	taintCache       *taint.Cache
	enableRegression bool
}

// New builds a Pipeline over an already-constructed reader, pool, cache,
// known-address provider and blacklist provider. A nil blacklist defaults
// to config.EmptyBlacklist (never a hit). enableRegression threads the
// regression-harness opt-in into every assessment this pipeline produces.
func New(reader *solanarpc.Reader, pool *solanarpc.Pool, cache *analysiscache.Cache, known config.KnownAddressProvider, blacklist config.BlacklistProvider, enableRegression bool) *Pipeline {
	if blacklist == nil {
		blacklist = config.EmptyBlacklist{}
	}
	return &Pipeline{
		reader:           reader,
		pool:             pool,
		cache:            cache,
		known:            known,
		blacklist:        blacklist,
		taintCache:       taint.NewCache(),
		enableRegression: enableRegression,
	}
}

// Snapshot returns the cached base analysis for address, computing it
// (once, across concurrent callers, via the cache's single-flight path)
// when missing or past its TTL.
func (p *Pipeline) Snapshot(ctx context.Context, address string) (*Snapshot, error) {
	result, err := p.cache.GetOrCompute(ctx, address, defaultSampleDepth, func(ctx context.Context) (any, error) {
		return p.compute(ctx, address, defaultSampleDepth)
	})
	if err != nil {
		return nil, err
	}
	snap, _ := result.(*Snapshot)
	return snap, nil
}

func (p *Pipeline) compute(ctx context.Context, address string, depth int) (*Snapshot, error) {
	if !models.ValidAddress(address) {
		return nil, stageerr.New(stageerr.InvalidAddress, "pipeline", fmt.Errorf("invalid address: %s", address))
	}

	identity, err := p.reader.GetAccountIdentity(ctx, address)
	if err != nil {
		return nil, err
	}

	signatures, sigErr := p.reader.SignaturesPaginated(ctx, address, depth, "")
	if sigErr != nil {
		log.Warn().Err(sigErr).Str("wallet", address).Msg("signature fetch degraded, continuing with empty history")
		signatures = nil // DegradedData: the rest of the snapshot still builds, just empty.
	}

	sigStrings := make([]string, 0, len(signatures))
	for _, s := range signatures {
		sigStrings = append(sigStrings, s.Signature)
	}

	rawTxs, txErr := p.reader.BatchedTransactions(ctx, sigStrings)
	if txErr != nil {
		log.Warn().Err(txErr).Str("wallet", address).Msg("transaction batch fetch degraded, continuing with empty history")
		rawTxs = nil
	}

	parsedTxs := make([]models.ParsedTransaction, 0, len(rawTxs))
	var edges []models.Edge
	for _, raw := range rawTxs {
		parsedTxs = append(parsedTxs, parser.ParseTransaction(raw, address))
		edges = append(edges, parser.DeriveLinks(raw, address)...)
	}
	sort.Slice(parsedTxs, func(i, j int) bool { return parsedTxs[i].BlockTime > parsedTxs[j].BlockTime })

	dataQuality := parser.ComputeQuality(signatures, parsedTxs)

	buildStart := time.Now()
	g := graph.Build(edges)
	graphStats := g.Stats(time.Since(buildStart).Milliseconds())

	seeds := taint.AutoSeed(g)
	taintResults, taintMetrics := taint.PropagateCached(p.taintCache, g, seeds, taintAlpha, address)

	clusterEngine := entity.New()
	clusterEngine.MergeFromEdges(edges, p.known)
	clusters := clusterEngine.Clusters()

	integrations := entity.DetectIntegrations(g, edges, p.known)

	evidencePaths := topEvidencePaths(edges, address)
	flowResult := computeFlowAttribution(edges, taintResults, address)
	influenceSummary := influence.Analyze(edges, taintResults, influence.DefaultBudget)

	counterpartyIdentities, idErr := p.reader.BatchIdentities(ctx, counterpartyAddresses(edges, address))
	if idErr != nil {
		log.Warn().Err(idErr).Str("wallet", address).Msg("counterparty identity resolution degraded, continuing without linked/program triage")
		counterpartyIdentities = map[string]models.AccountIdentity{}
	}

	rpcMetrics := p.pool.Metrics()

	riskAssessment := risk.Assess(risk.Inputs{
		TaintResults:    taintResults,
		TaintMetrics:    taintMetrics,
		GraphStats:      graphStats,
		Clusters:        clusters,
		Integrations:    integrations,
		FlowAttribution: flowResult,
		SampleTxs:       parsedTxs,
		DataQuality:     dataQuality,
		BlacklistHit:    p.hasBlacklistedLink(address, edges),
		RPCMetrics:      rpcMetrics,
	}, investigationContext(parsedTxs, integrations, p.enableRegression))

	return &Snapshot{
		WalletAddress:          address,
		ComputedAt:             time.Now(),
		Depth:                  depth,
		Identity:               identity,
		Signatures:             signatures,
		ParsedTxs:              parsedTxs,
		DataQuality:            dataQuality,
		Edges:                  edges,
		GraphStats:             graphStats,
		TaintResults:           taintResults,
		TaintMetrics:           taintMetrics,
		Clusters:               clusters,
		Integrations:           integrations,
		EvidencePaths:          evidencePaths,
		FlowAttribution:        flowResult,
		Influence:              influenceSummary,
		RPCMetrics:             rpcMetrics,
		Risk:                   riskAssessment,
		CounterpartyIdentities: counterpartyIdentities,
	}, nil
}

// counterpartyAddresses collects the unique non-wallet addresses touched by
// edges, for identity resolution.
func counterpartyAddresses(edges []models.Edge, wallet string) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range edges {
		for _, addr := range []string{e.From, e.To} {
			if addr == wallet || addr == "" || seen[addr] {
				continue
			}
			seen[addr] = true
			out = append(out, addr)
		}
	}
	return out
}

// topEvidencePaths walks the k-shortest paths from address to its
// highest-value counterparty, the natural "most documented" chain of
// custody for a narrative conclusion.
func topEvidencePaths(edges []models.Edge, address string) []models.EvidencePath {
	target := topCounterparty(edges, address)
	if target == "" {
		return nil
	}
	return evidence.KShortestPaths(edges, address, target, evidenceK)
}

// computeFlowAttribution decomposes flow into address, preferring known
// taint sources as origins and falling back to the highest-value inbound
// counterparties when no taint has propagated yet.
func computeFlowAttribution(edges []models.Edge, taintResults []models.TaintResult, address string) models.FlowAttributionResult {
	var sources []string
	for _, t := range taintResults {
		if t.Address != address && t.Score > highTaintThreshold {
			sources = append(sources, t.Address)
		}
	}
	if len(sources) == 0 {
		sources = topInboundCounterparties(edges, address, 3)
	}
	if len(sources) == 0 {
		return models.FlowAttributionResult{}
	}
	return flow.Attribute(edges, sources, address)
}

// hasBlacklistedLink reports whether the wallet itself or any of its
// observed counterparties matches the pluggable blacklist provider.
func (p *Pipeline) hasBlacklistedLink(address string, edges []models.Edge) bool {
	if p.blacklist.IsBlacklisted(address) {
		return true
	}
	for _, e := range edges {
		if p.blacklist.IsBlacklisted(e.From) || p.blacklist.IsBlacklisted(e.To) {
			return true
		}
	}
	return false
}

func topCounterparty(edges []models.Edge, address string) string {
	totals := map[string]float64{}
	for _, e := range edges {
		if e.From == address {
			totals[e.To] += e.ValueSOL
		} else if e.To == address {
			totals[e.From] += e.ValueSOL
		}
	}
	best, bestValue := "", -1.0
	for addr, v := range totals {
		if v > bestValue {
			best, bestValue = addr, v
		}
	}
	return best
}

func topInboundCounterparties(edges []models.Edge, address string, n int) []string {
	totals := map[string]float64{}
	for _, e := range edges {
		if e.To == address {
			totals[e.From] += e.ValueSOL
		}
	}
	type pair struct {
		addr  string
		value float64
	}
	var pairs []pair
	for addr, v := range totals {
		pairs = append(pairs, pair{addr, v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].value > pairs[j].value })
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.addr
	}
	return out
}

// investigationContext derives the risk profile selection context from
// what the snapshot has already observed, per spec §4.11 step 1.
func investigationContext(parsedTxs []models.ParsedTransaction, integrations []models.IntegrationEvent, enableRegression bool) risk.InvestigationContext {
	ctx := risk.InvestigationContext{TransactionCount: len(parsedTxs), EnableRegressionValidation: enableRegression}
	for _, tx := range parsedTxs {
		v := tx.SolDelta
		if v < 0 {
			v = -v
		}
		if v > ctx.MaxTransactionValue {
			ctx.MaxTransactionValue = v
		}
	}
	for _, ev := range integrations {
		if ev.Type == "cex" {
			ctx.HasCEXInteractions = true
		}
	}
	return ctx
}
