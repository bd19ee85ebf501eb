// Package graph builds the directed wallet transaction graph and
// computes its degree distribution, connectivity, and value-concentration
// statistics (C5), generalizing the per-transaction topology metrics the
// corpus computes for a single UTXO transaction (Gini coefficient of
// output values, fan-in/fan-out ratio) to an entire multi-hop wallet
// graph.
package graph

import (
	"math"
	"sort"

	"github.com/ghosthunter/detective/pkg/models"
)

// Graph is a directed transaction graph keyed by address.
type Graph struct {
	Nodes map[string]bool
	Edges []models.Edge

	outDegree map[string]int
	inDegree  map[string]int
	outValue  map[string]float64
	inValue   map[string]float64
}

// Build constructs a Graph from a flat edge list.
func Build(edges []models.Edge) *Graph {
	g := &Graph{
		Nodes:     make(map[string]bool),
		Edges:     edges,
		outDegree: make(map[string]int),
		inDegree:  make(map[string]int),
		outValue:  make(map[string]float64),
		inValue:   make(map[string]float64),
	}
	for _, e := range edges {
		g.Nodes[e.From] = true
		g.Nodes[e.To] = true
		g.outDegree[e.From]++
		g.inDegree[e.To]++
		g.outValue[e.From] += e.ValueSOL
		g.inValue[e.To] += e.ValueSOL
	}
	return g
}

// Stats computes the full GraphStats report. The connectivity stage
// degrades gracefully (enabled:false) when the graph has fewer than two
// nodes; the performance stage is always enabled.
func (g *Graph) Stats(buildMS int64) models.GraphStats {
	degree := g.degreeStats()

	var connectivity models.Stage[models.ConnectivitySummary]
	if len(g.Nodes) < 2 {
		connectivity = models.DisabledStage[models.ConnectivitySummary]("insufficient_nodes")
	} else {
		connectivity = models.EnabledStage(g.connectivitySummary())
	}

	performance := models.EnabledStage(models.PerformanceMetrics{
		BuildTimeMS: buildMS,
		NodeCount:   len(g.Nodes),
		EdgeCount:   len(g.Edges),
	})

	return models.GraphStats{
		NodeCount:     len(g.Nodes),
		EdgeCount:     len(g.Edges),
		Degree:        degree,
		Connectivity:  connectivity,
		Performance:   performance,
	}
}

// InflowValue returns the total SOL value of edges incoming to addr.
func (g *Graph) InflowValue(addr string) float64 {
	return g.inValue[addr]
}

// OutflowValue returns the total SOL value of edges outgoing from addr.
func (g *Graph) OutflowValue(addr string) float64 {
	return g.outValue[addr]
}

func (g *Graph) degreeStats() models.DegreeStats {
	values := make([]float64, 0, len(g.Nodes))
	totalValue := 0.0
	maxFanIn, maxFanOut := 0, 0

	for addr := range g.Nodes {
		out := g.outDegree[addr]
		in := g.inDegree[addr]
		if out > maxFanOut {
			maxFanOut = out
		}
		if in > maxFanIn {
			maxFanIn = in
		}
		v := g.outValue[addr] + g.inValue[addr]
		values = append(values, v)
		totalValue += v
	}

	gini := giniCoefficient(values)
	fanRatio := 0.0
	if maxFanIn > 0 {
		fanRatio = float64(maxFanOut) / float64(maxFanIn)
	}

	return models.DegreeStats{
		MaxFanIn:        maxFanIn,
		MaxFanOut:       maxFanOut,
		FanRatio:        round2(fanRatio),
		GiniCoefficient: gini,
	}
}

func (g *Graph) connectivitySummary() models.ConnectivitySummary {
	components := g.weaklyConnectedComponents()
	largest := 0
	for _, c := range components {
		if len(c) > largest {
			largest = len(c)
		}
	}
	density := 0.0
	n := len(g.Nodes)
	if n > 1 {
		density = float64(len(g.Edges)) / float64(n*(n-1))
	}
	return models.ConnectivitySummary{
		ComponentCount:      len(components),
		LargestComponentSize: largest,
		Density:             round2(density),
	}
}

// weaklyConnectedComponents treats the graph as undirected for component
// discovery via a simple BFS over an adjacency index built from edges.
func (g *Graph) weaklyConnectedComponents() [][]string {
	adj := make(map[string][]string)
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}

	visited := make(map[string]bool)
	var components [][]string

	for node := range g.Nodes {
		if visited[node] {
			continue
		}
		var component []string
		queue := []string{node}
		visited[node] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			component = append(component, cur)
			for _, neighbor := range adj[cur] {
				if !visited[neighbor] {
					visited[neighbor] = true
					queue = append(queue, neighbor)
				}
			}
		}
		components = append(components, component)
	}
	return components
}

// giniCoefficient generalizes the corpus's per-transaction output-value
// Gini coefficient to the whole graph's per-node total value, using the
// same sorted-weighted-sum formula.
func giniCoefficient(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	total := 0.0
	for _, v := range sorted {
		total += v
	}
	if total <= 0 {
		return 0
	}

	weightedSum := 0.0
	for i, v := range sorted {
		weightedSum += float64(i+1) * v
	}

	gini := (2*weightedSum)/(float64(n)*total) - float64(n+1)/float64(n)
	if gini < 0 {
		gini = 0
	}
	if gini > 1 {
		gini = 1
	}
	return round2(gini)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
