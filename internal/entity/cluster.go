// Package entity implements address clustering (C7): a weighted
// Union-Find over co-spending/shared-counterparty edges, gated by edge
// type so transfers crossing a detected exchange or bridge boundary never
// trigger a merge — a common-input-ownership-style gate generalized from
// single-transaction input clustering to whole-wallet-graph edges.
package entity

import (
	"sort"

	"github.com/ghosthunter/detective/internal/config"
	"github.com/ghosthunter/detective/pkg/models"
)

// coSpendWindowSeconds bounds how far apart in time two edges between the
// same pair of addresses may fall and still count as the same
// co-spending/shared-counterparty relationship, rather than one-off,
// unrelated transfers.
const coSpendWindowSeconds int64 = 3600

// EdgeRole classifies an edge for merge-gating purposes.
type EdgeRole string

const (
	RoleCoSpend        EdgeRole = "co_spend"
	RoleSharedCounterparty EdgeRole = "shared_counterparty"
	RoleServiceBoundary EdgeRole = "service_boundary" // CEX/bridge/mixer — never merge
)

// ClusterEngine is a weighted Union-Find over wallet addresses.
type ClusterEngine struct {
	parent map[string]string
	rank   map[string]int

	memberValue map[string]float64
	memberTxs   map[string]int
}

// New creates a new, empty ClusterEngine.
func New() *ClusterEngine {
	return &ClusterEngine{
		parent:      make(map[string]string),
		rank:        make(map[string]int),
		memberValue: make(map[string]float64),
		memberTxs:   make(map[string]int),
	}
}

// Find returns the root representative of addr's cluster, with path
// compression for amortized O(α(n)) lookups.
func (ce *ClusterEngine) Find(addr string) string {
	if _, exists := ce.parent[addr]; !exists {
		ce.parent[addr] = addr
		ce.rank[addr] = 0
	}
	if ce.parent[addr] != addr {
		ce.parent[addr] = ce.Find(ce.parent[addr])
	}
	return ce.parent[addr]
}

// Union merges the clusters containing addr1 and addr2 by rank. Returns
// true if a merge actually occurred.
func (ce *ClusterEngine) Union(addr1, addr2 string) bool {
	root1 := ce.Find(addr1)
	root2 := ce.Find(addr2)
	if root1 == root2 {
		return false
	}

	if ce.rank[root1] < ce.rank[root2] {
		ce.parent[root1] = root2
	} else if ce.rank[root1] > ce.rank[root2] {
		ce.parent[root2] = root1
	} else {
		ce.parent[root2] = root1
		ce.rank[root1]++
	}
	return true
}

// roleForEdge classifies an edge for merge gating: an edge touching a
// known CEX/bridge/mixer address is a service boundary and is never
// merged across.
func roleForEdge(e models.Edge, known config.KnownAddressProvider) EdgeRole {
	if known != nil {
		if _, ok := known.Lookup(e.From); ok {
			return RoleServiceBoundary
		}
		if _, ok := known.Lookup(e.To); ok {
			return RoleServiceBoundary
		}
	}
	return RoleCoSpend
}

// MergeFromEdges processes wallet-graph edges and merges endpoints that
// co-spend or share a counterparty within a time window, skipping any
// edge that crosses a known service boundary. A single isolated transfer
// between two addresses is not itself a co-spend/shared-counterparty
// signal — only a pair of addresses that interact more than once, within
// coSpendWindowSeconds of each other, is treated as common-controlled.
// Returns the number of merges performed.
func (ce *ClusterEngine) MergeFromEdges(edges []models.Edge, known config.KnownAddressProvider) int {
	sorted := append([]models.Edge(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BlockTime < sorted[j].BlockTime })

	lastSeen := make(map[pairKey]int64, len(sorted))
	merged := 0
	for _, e := range sorted {
		if roleForEdge(e, known) == RoleServiceBoundary {
			continue
		}

		ce.recordMembership(e.From, e.ValueSOL)
		ce.recordMembership(e.To, 0)

		pk := pairKeyFor(e.From, e.To)
		prior, seen := lastSeen[pk]
		lastSeen[pk] = e.BlockTime
		if !seen {
			continue
		}
		if diff := e.BlockTime - prior; diff < 0 || diff > coSpendWindowSeconds {
			continue
		}
		if ce.Union(e.From, e.To) {
			merged++
		}
	}
	return merged
}

// pairKey identifies an unordered address pair for repeat-interaction
// tracking.
type pairKey struct{ a, b string }

func pairKeyFor(from, to string) pairKey {
	if from <= to {
		return pairKey{from, to}
	}
	return pairKey{to, from}
}

func (ce *ClusterEngine) recordMembership(addr string, value float64) {
	ce.Find(addr) // ensure registered
	ce.memberValue[addr] += value
	ce.memberTxs[addr]++
}

// GetCluster returns every address sharing addr's root.
func (ce *ClusterEngine) GetCluster(addr string) []string {
	root := ce.Find(addr)
	var members []string
	for a := range ce.parent {
		if ce.Find(a) == root {
			members = append(members, a)
		}
	}
	return members
}

// Clusters returns every distinct cluster as a models.Cluster, with
// aggregate value and transaction-count statistics.
func (ce *ClusterEngine) Clusters() []models.Cluster {
	byRoot := make(map[string][]string)
	for addr := range ce.parent {
		root := ce.Find(addr)
		byRoot[root] = append(byRoot[root], addr)
	}

	clusters := make([]models.Cluster, 0, len(byRoot))
	for root, members := range byRoot {
		totalValue := 0.0
		txCount := 0
		for _, m := range members {
			totalValue += ce.memberValue[m]
			txCount += ce.memberTxs[m]
		}
		clusters = append(clusters, models.Cluster{
			RootAddress: root,
			Members:     members,
			TotalValue:  totalValue,
			TxCount:     txCount,
		})
	}
	return clusters
}
