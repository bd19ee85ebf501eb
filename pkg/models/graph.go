package models

// Stage wraps the output of an optional analysis stage. Stages never panic
// or abort the pipeline on insufficient input — they report themselves
// disabled with a reason instead.
type Stage[T any] struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// EnabledStage wraps a computed value as an active stage result.
func EnabledStage[T any](data T) Stage[T] {
	return Stage[T]{Enabled: true, Data: data}
}

// DisabledStage wraps a reason as an inactive stage result.
func DisabledStage[T any](reason string) Stage[T] {
	return Stage[T]{Enabled: false, Reason: reason}
}

// DegreeStats summarizes the in/out degree distribution of the graph,
// generalizing the per-transaction fan-in/fan-out/Gini metrics to the
// whole wallet graph.
type DegreeStats struct {
	MaxFanIn        int     `json:"max_fan_in"`
	MaxFanOut       int     `json:"max_fan_out"`
	FanRatio        float64 `json:"fan_ratio"`
	GiniCoefficient float64 `json:"gini_coefficient"`
}

// ConnectivitySummary describes the wallet graph's weak-connectivity
// structure.
type ConnectivitySummary struct {
	ComponentCount       int     `json:"component_count"`
	LargestComponentSize int     `json:"largest_component_size"`
	Density              float64 `json:"density"`
}

// PerformanceMetrics records how expensive the graph build was.
type PerformanceMetrics struct {
	BuildTimeMS int64 `json:"build_time_ms"`
	NodeCount   int   `json:"node_count"`
	EdgeCount   int   `json:"edge_count"`
}

// GraphStats is the C5 Graph Engine's exported statistics block.
// Connectivity degrades gracefully (enabled:false) on graphs too small to
// produce a meaningful component/density report.
type GraphStats struct {
	NodeCount    int                          `json:"node_count"`
	EdgeCount    int                          `json:"edge_count"`
	Degree       DegreeStats                  `json:"degree"`
	Connectivity Stage[ConnectivitySummary]    `json:"connectivity"`
	Performance  Stage[PerformanceMetrics]     `json:"performance"`
}
