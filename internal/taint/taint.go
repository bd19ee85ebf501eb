// Package taint implements the iterative taint-propagation engine (C6):
// a value-weighted, attenuated generalization of the haircut/proportional
// taint model the corpus applies per-transaction (taint distributed
// across outputs by value share, then hop-decayed) to an entire directed
// wallet graph propagated to convergence.
package taint

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ghosthunter/detective/internal/graph"
	"github.com/ghosthunter/detective/pkg/models"
)

const (
	epsilon               = 1e-4
	maxIterations          = 32
	highTaintThreshold     = 0.1
	autoSeedValueThreshold = 100.0 // SOL
)

// RiskLevelForScore maps a taint score to the clean/low/medium/high/critical
// bands, matching the corpus's classifyRisk thresholds.
func RiskLevelForScore(score float64) string {
	switch {
	case score <= 0.01:
		return "clean"
	case score <= 0.10:
		return "low"
	case score <= 0.25:
		return "medium"
	case score <= 0.50:
		return "high"
	default:
		return "critical"
	}
}

// AutoSeed derives demonstration-anchor seeds from any edge exceeding the
// auto-seed value threshold, when the caller supplies no explicit seeds.
func AutoSeed(g *graph.Graph) []models.TaintSeed {
	var seeds []models.TaintSeed
	for _, e := range g.Edges {
		if e.ValueSOL > autoSeedValueThreshold {
			seeds = append(seeds, models.TaintSeed{
				Address:   e.From,
				Reason:    "high_value_edge",
				Intensity: 1.0,
				Source:    "auto",
			})
		}
	}
	return seeds
}

// Cache memoizes propagation runs keyed on (slot_range, sorted seeds,
// graph structural hash): repeat requests for the same taint computation
// replay the prior result instead of re-iterating to convergence.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	results []models.TaintResult
	metrics models.TaintMetrics
}

// NewCache builds an empty taint Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// PropagateCached runs Propagate, memoized by cache on (slot_range, sorted
// seeds, graph structural hash). A hit replays the prior result's
// computation_time instead of recomputing it.
func PropagateCached(cache *Cache, g *graph.Graph, seeds []models.TaintSeed, alpha float64, targetWallet string) ([]models.TaintResult, models.TaintMetrics) {
	if cache == nil {
		return Propagate(g, seeds, alpha, targetWallet)
	}

	key := cacheKey(g, seeds, alpha)

	cache.mu.Lock()
	if entry, ok := cache.entries[key]; ok {
		cache.mu.Unlock()
		metrics := entry.metrics
		metrics.CacheHit = true
		return entry.results, metrics
	}
	cache.mu.Unlock()

	start := time.Now()
	results, metrics := Propagate(g, seeds, alpha, targetWallet)
	metrics.ComputationTimeMS = time.Since(start).Milliseconds()
	metrics.CacheHit = false

	cache.mu.Lock()
	cache.entries[key] = cacheEntry{results: results, metrics: metrics}
	cache.mu.Unlock()

	return results, metrics
}

// cacheKey derives the (slot_range, sorted seeds, graph structural hash)
// cache key the spec documents: the min/max slot spanned by g's edges,
// the seed set sorted by address, and an FNV hash over every edge's
// (from, to, value, slot).
func cacheKey(g *graph.Graph, seeds []models.TaintSeed, alpha float64) string {
	minSlot, maxSlot := uint64(0), uint64(0)
	first := true
	for _, e := range g.Edges {
		if first || e.Slot < minSlot {
			minSlot = e.Slot
		}
		if first || e.Slot > maxSlot {
			maxSlot = e.Slot
		}
		first = false
	}

	sortedSeeds := append([]models.TaintSeed(nil), seeds...)
	sort.Slice(sortedSeeds, func(i, j int) bool { return sortedSeeds[i].Address < sortedSeeds[j].Address })

	h := fnv.New64a()
	for _, e := range g.Edges {
		fmt.Fprintf(h, "%s>%s:%.9f@%d|", e.From, e.To, e.ValueSOL, e.Slot)
	}

	return fmt.Sprintf("%d-%d|%v|%x|%.4f", minSlot, maxSlot, sortedSeeds, h.Sum64(), alpha)
}

// Propagate runs value-weighted, alpha-attenuated taint propagation from
// seeds over g to convergence (or maxIterations), then reports per-
// address TaintResult and aggregate TaintMetrics. targetWallet is not
// used: the analyzed wallet's own score appears only as its entry among
// the per-address results, present when taint reaches it.
func Propagate(g *graph.Graph, seeds []models.TaintSeed, alpha float64, targetWallet string) ([]models.TaintResult, models.TaintMetrics) {
	if alpha <= 0 {
		alpha = 1.0
	}

	taint := make(map[string]float64)
	hops := make(map[string]int)
	paths := make(map[string][]string)

	for _, s := range seeds {
		if s.Intensity > taint[s.Address] {
			taint[s.Address] = s.Intensity
			hops[s.Address] = 0
			paths[s.Address] = []string{s.Address}
		}
	}

	outflow := make(map[string]float64)
	for _, e := range g.Edges {
		outflow[e.From] += e.ValueSOL
	}

	for iter := 0; iter < maxIterations; iter++ {
		delta := 0.0
		next := make(map[string]float64, len(taint))
		for addr, v := range taint {
			next[addr] = v
		}

		for _, e := range g.Edges {
			sourceTaint, ok := taint[e.From]
			if !ok || sourceTaint <= 0 || outflow[e.From] <= 0 {
				continue
			}
			share := e.ValueSOL / outflow[e.From]
			propagated := sourceTaint * share * alpha

			if propagated > next[e.To] {
				next[e.To] = propagated
				if hops[e.From]+1 < hops[e.To] || hops[e.To] == 0 {
					hops[e.To] = hops[e.From] + 1
				}
				paths[e.To] = append(append([]string(nil), paths[e.From]...), e.To)
			}
			if d := math.Abs(next[e.To] - taint[e.To]); d > delta {
				delta = d
			}
		}

		taint = next
		if delta < epsilon {
			break
		}
	}

	results := make([]models.TaintResult, 0, len(taint))
	totalScore := 0.0
	highCount := 0
	for addr, score := range taint {
		if addr == "" {
			continue
		}
		results = append(results, models.TaintResult{
			Address:           addr,
			Score:             round3(score),
			Hops:              hops[addr],
			Path:              paths[addr],
			ContributingValue: round3(g.InflowValue(addr)),
		})
		totalScore += score
		if score >= highTaintThreshold {
			highCount++
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Address < results[j].Address })

	metrics := models.TaintMetrics{
		TotalTainted:   len(results),
		HighTaintCount: highCount,
	}
	if len(results) > 0 {
		metrics.MeanScore = round3(totalScore / float64(len(results)))
	}

	return results, metrics
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
