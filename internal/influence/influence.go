// Package influence implements counterfactual node-removal analysis
// (C10): for each of the top-N addresses by taint score, temporarily
// remove the node from the graph and recompute flow/taint mass,
// reporting the delta. Generalizes the corpus's flow-graph summary
// accounting (total tracked value, exchange exit counts) into a
// what-if removal budget.
package influence

import (
	"math"
	"sort"

	"github.com/ghosthunter/detective/pkg/models"
)

// DefaultBudget bounds the number of nodes evaluated, per spec.
const DefaultBudget = 20

// Analyze evaluates counterfactual removal for the top budget addresses
// by taint score (highest first), reporting per-node Δflow/Δtaint-mass
// and overall network fragility.
func Analyze(edges []models.Edge, taintResults []models.TaintResult, budget int) models.InfluenceSummary {
	if budget <= 0 {
		budget = DefaultBudget
	}

	candidates := append([]models.TaintResult(nil), taintResults...)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if len(candidates) > budget {
		candidates = candidates[:budget]
	}

	baselineFlow := totalFlow(edges)
	baselineTaintMass := taintMass(taintResults)

	var nodes []models.NodeInfluence
	fragilitySum := 0.0

	for _, c := range candidates {
		reducedEdges := removeNode(edges, c.Address)
		flowAfter := totalFlow(reducedEdges)
		taintMassAfter := taintMassExcluding(taintResults, c.Address)

		ratio := 1.0
		if baselineFlow > 0 {
			ratio = flowAfter / baselineFlow
		}
		fragilitySum += 1 - ratio

		nodes = append(nodes, models.NodeInfluence{
			Address:    c.Address,
			DeltaFlow:  round3(baselineFlow - flowAfter),
			DeltaTaint: round3(baselineTaintMass - taintMassAfter),
			FlowBefore: round3(baselineFlow),
			FlowAfter:  round3(flowAfter),
		})
	}

	fragility := 0.0
	if len(candidates) > 0 {
		fragility = fragilitySum / float64(len(candidates))
	}

	return models.InfluenceSummary{
		Nodes:            nodes,
		NetworkFragility: round3(fragility),
	}
}

func totalFlow(edges []models.Edge) float64 {
	total := 0.0
	for _, e := range edges {
		total += e.ValueSOL
	}
	return total
}

func removeNode(edges []models.Edge, addr string) []models.Edge {
	var out []models.Edge
	for _, e := range edges {
		if e.From == addr || e.To == addr {
			continue
		}
		out = append(out, e)
	}
	return out
}

func taintMass(results []models.TaintResult) float64 {
	total := 0.0
	for _, r := range results {
		total += r.Score
	}
	return total
}

func taintMassExcluding(results []models.TaintResult, addr string) float64 {
	total := 0.0
	for _, r := range results {
		if r.Address == addr {
			continue
		}
		total += r.Score
	}
	return total
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
