// Package flow implements path-based flow attribution (C9): a
// generalization of the corpus's hop-by-hop fund-flow tracer (which
// walks a theft address forward recording FlowEdge/FlowNode hops) into
// simple paths over the wallet graph, ranked by min-cost-flow style edge
// costs, each carrying an attributed fraction of total flow. No min-cost
// flow problem is solved: edge capacities are not shared between paths,
// so paths that run through the same edge each count that edge's full
// value.
package flow

import (
	"math"
	"sort"

	"github.com/ghosthunter/detective/pkg/models"
)

// edgeCost models a min-cost flow cost function: higher-value edges are
// cheaper (more likely) carriers of attributable flow.
func edgeCost(value float64) float64 {
	return -math.Log(value + 1)
}

// Attribute decomposes flow from sources to the target wallet into
// simple paths, capacitated by edge values, costing each path by
// cumulative −log(value+1), and attributing a fraction of total flow to
// each path proportional to its bottleneck capacity.
func Attribute(edges []models.Edge, sources []string, target string) models.FlowAttributionResult {
	adj := make(map[string][]models.Edge)
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e)
	}

	var rawPaths []rawPath
	for _, src := range sources {
		rawPaths = append(rawPaths, findPaths(adj, src, target, 4)...)
	}

	sort.Slice(rawPaths, func(i, j int) bool { return rawPaths[i].cost < rawPaths[j].cost })

	totalCapacity := 0.0
	for _, p := range rawPaths {
		totalCapacity += p.bottleneck
	}

	var attributions []models.FlowAttribution
	for _, p := range rawPaths {
		fraction := 0.0
		if totalCapacity > 0 {
			fraction = p.bottleneck / totalCapacity
		}
		attributions = append(attributions, models.FlowAttribution{
			Path:               p.nodes,
			AttributedFraction: round3(fraction),
			ValueSOL:           round3(p.bottleneck),
		})
	}

	quality := 0.0
	if len(sources) > 0 {
		quality = float64(len(rawPaths)) / float64(len(sources))
		if quality > 1 {
			quality = 1
		}
	}

	return models.FlowAttributionResult{
		Attributions:       attributions,
		ActiveFlows:        len(attributions),
		AttributionQuality: round3(quality),
	}
}

type rawPath struct {
	nodes      []string
	bottleneck float64
	cost       float64
}

// findPaths enumerates simple (loopless) paths from source to target up
// to maxDepth hops, tracking bottleneck capacity (min edge value along
// the path) and cumulative min-cost-flow cost.
func findPaths(adj map[string][]models.Edge, source, target string, maxDepth int) []rawPath {
	var results []rawPath
	var walk func(node string, path []string, bottleneck, cost float64, visited map[string]bool)
	walk = func(node string, path []string, bottleneck, cost float64, visited map[string]bool) {
		if node == target && len(path) > 1 {
			results = append(results, rawPath{nodes: append([]string(nil), path...), bottleneck: bottleneck, cost: cost})
			return
		}
		if len(path) > maxDepth {
			return
		}
		for _, e := range adj[node] {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			newBottleneck := math.Min(bottleneck, e.ValueSOL)
			walk(e.To, append(path, e.To), newBottleneck, cost+edgeCost(e.ValueSOL), visited)
			delete(visited, e.To)
		}
	}
	walk(source, []string{source}, math.Inf(1), 0, map[string]bool{source: true})
	return results
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
