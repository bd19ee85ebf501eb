package models

// TaintSeed is an explicit incident anchor fed into the Taint Engine.
type TaintSeed struct {
	Address   string  `json:"address"`
	Reason    string  `json:"reason"`
	Intensity float64 `json:"intensity"` // 0..1
	Source    string  `json:"source"`
}

// TaintResult is the per-address outcome of taint propagation.
type TaintResult struct {
	Address           string   `json:"address"`
	Score             float64  `json:"score"` // 0..1
	Hops              int      `json:"hops"`
	Path              []string `json:"path"`
	ContributingValue float64  `json:"contributing_value"` // SOL
}

// TaintMetrics summarizes a completed propagation run.
type TaintMetrics struct {
	TotalTainted      int     `json:"total_tainted"`
	MeanScore         float64 `json:"mean_score"`
	HighTaintCount    int     `json:"high_taint_count"` // threshold 0.1
	ComputationTimeMS int64   `json:"computation_time_ms"`
	CacheHit          bool    `json:"cache_hit"`
}

// Cluster is the output of entity resolution: a union-find root plus its
// members and aggregate statistics.
type Cluster struct {
	RootAddress  string   `json:"root_address"`
	Members      []string `json:"members"`
	TotalValue   float64  `json:"total_value_sol"`
	TxCount      int      `json:"tx_count"`
}

// IntegrationEvent records a detected interaction with a CEX, bridge or
// mixer endpoint.
type IntegrationEvent struct {
	Address    string  `json:"address"`
	Type       string  `json:"type"` // "cex"/"bridge"/"mixer"
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Detail     string  `json:"detail,omitempty"`
}

// EvidencePath is one of the k-shortest paths produced by the Evidence
// Paths stage.
type EvidencePath struct {
	Nodes          []string `json:"nodes"`
	AggregateValue float64  `json:"aggregate_value_sol"`
	MinEdgeValue   float64  `json:"min_edge_value_sol"`
	Rationale      []string `json:"rationale"`
	Hops           int      `json:"hops"`
	DecayedWeight  float64  `json:"decayed_weight"`
}

// FlowAttribution is one decomposed path of the min-cost flow solution.
type FlowAttribution struct {
	Path               []string `json:"path"`
	AttributedFraction float64  `json:"attributed_fraction"`
	ValueSOL           float64  `json:"value_sol"`
}

// FlowAttributionResult is the C9 Flow Attribution stage's output.
type FlowAttributionResult struct {
	Attributions      []FlowAttribution `json:"attributions"`
	ActiveFlows       int               `json:"active_flows"`
	ComputationTimeMS int64             `json:"computation_time_ms"`
	AttributionQuality float64          `json:"attribution_quality"`
}

// NodeInfluence is one node's counterfactual-removal impact.
type NodeInfluence struct {
	Address       string  `json:"address"`
	DeltaFlow     float64 `json:"delta_flow"`
	DeltaTaint    float64 `json:"delta_taint_mass"`
	FlowBefore    float64 `json:"flow_before"`
	FlowAfter     float64 `json:"flow_after"`
}

// InfluenceSummary is the C10 Influence Analysis stage's output.
type InfluenceSummary struct {
	Nodes            []NodeInfluence `json:"nodes"`
	NetworkFragility float64         `json:"network_fragility"`
}
