// Package risk implements the C11 Risk Engine: it folds the outputs of the
// taint, graph, entity, integration, flow and transaction-quality stages
// into a single weighted final_score, generalizing the corpus's
// single-transaction weighted-signal ScoreTransaction accumulator into a
// whole-investigation assessment.
package risk

import (
	"math"

	"github.com/ghosthunter/detective/internal/solanarpc"
	"github.com/ghosthunter/detective/pkg/models"
)

const (
	highTaintDriverThreshold = 0.5
	manyIntegrationsDriver   = 2
	largeFanOutDriver        = 20

	extremeVolumeTxCount  = 40
	veryHighVolumeTxCount = 25
	highVolumeTxCount     = 10
)

// Inputs bundles the stage outputs the Risk Engine folds into a score. Any
// field may be the zero value of its type; components derived from a
// zero-value or Stage-disabled input score themselves conservatively and
// report reduced confidence rather than abort the assessment.
type Inputs struct {
	TaintResults    []models.TaintResult
	TaintMetrics    models.TaintMetrics
	GraphStats      models.GraphStats
	Clusters        []models.Cluster
	Integrations    []models.IntegrationEvent
	FlowAttribution models.FlowAttributionResult
	SampleTxs       []models.ParsedTransaction
	DataQuality     models.DataQuality
	// BlacklistHit reports whether any address linked to the wallet matched
	// the pluggable blacklist provider (§9 open questions).
	BlacklistHit bool
	// RPCMetrics is the provider pool's cumulative observability record
	// (every call since the pool was created, including this snapshot's);
	// its success_rate folds into assessment_quality per spec.
	RPCMetrics solanarpc.PoolMetrics
}

// Assess runs the full C11 pipeline: profile selection, per-component
// scoring, weighted combination, level mapping and quality/fallback
// bookkeeping.
func Assess(in Inputs, ctx InvestigationContext) models.RiskAssessment {
	profile := SelectProfile(ctx)

	components := []models.RiskComponent{
		scoreTaint(in.TaintResults, in.TaintMetrics, in.BlacklistHit, profile.Weights[ComponentTaint]),
		scoreGraph(in.GraphStats, profile.Weights[ComponentGraph]),
		scoreEntity(in.Clusters, profile.Weights[ComponentEntity]),
		scoreIntegration(in.Integrations, profile.Weights[ComponentIntegration]),
		scoreFlow(in.FlowAttribution, profile.Weights[ComponentFlow]),
		scoreTransactions(in.SampleTxs, profile.Weights[ComponentTransactions]),
	}

	total := 0.0
	for i := range components {
		components[i].Contribution = round2(components[i].RawScore * components[i].Weight)
		total += components[i].Contribution
	}
	finalScore := clamp(total, 0, 100)
	level := models.LevelForScore(finalScore)

	flags, recs := deriveFlagsAndRecommendations(components, in)

	return models.RiskAssessment{
		FinalScore:        round2(finalScore),
		Level:             level,
		Confidence:        round2(meanConfidence(components)),
		Components:        components,
		Flags:             flags,
		Recommendations:   recs,
		ConfigurationUsed: profile.Name,
		AssessmentQuality: round2(assessmentQuality(components, in.DataQuality, in.RPCMetrics)),
		FallbackUsed:      false,
		Regression:        maybeRegress(ctx),
	}
}

// maybeRegress runs the regression harness only when the caller has
// opted in for this investigation, per spec §4.11 step 7 ("invoked only
// when an enabling flag is set").
func maybeRegress(ctx InvestigationContext) *models.RegressionSummary {
	if !ctx.EnableRegressionValidation {
		return nil
	}
	summary := RunRegression()
	return &summary
}

// Fallback produces a degraded RiskAssessment from sample transactions
// alone, for use when the full engine pipeline (taint/graph/entity/
// integration/flow stages) fails or times out. It always reports
// fallback_used=true and the "balanced" profile name, per spec.
func Fallback(sampleTxs []models.ParsedTransaction) models.RiskAssessment {
	component := scoreTransactions(sampleTxs, 1.0)
	component.Contribution = round2(component.RawScore)
	finalScore := clamp(component.Contribution, 0, 100)

	return models.RiskAssessment{
		FinalScore:        round2(finalScore),
		Level:             models.LevelForScore(finalScore),
		Confidence:        round2(component.Confidence * 0.5), // halved: fallback is degraded
		Components:        []models.RiskComponent{component},
		Flags:             []string{"fallback_pattern_based_scoring"},
		Recommendations:   []string{"rerun full assessment once upstream stages recover"},
		ConfigurationUsed: BalancedProfile.Name,
		AssessmentQuality: round2(component.Confidence * 0.5),
		FallbackUsed:      true,
	}
}

func scoreTaint(results []models.TaintResult, metrics models.TaintMetrics, blacklistHit bool, weight float64) models.RiskComponent {
	c := models.RiskComponent{Name: ComponentTaint, Weight: weight}
	if len(results) == 0 && !blacklistHit {
		c.Confidence = 0.3
		return c
	}

	maxScore := 0.0
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	raw := maxScore * 100
	c.Confidence = 0.9
	if metrics.HighTaintCount > 0 {
		c.Drivers = append(c.Drivers, "high-taint addresses detected in propagation")
	}
	if maxScore > highTaintDriverThreshold {
		c.Drivers = append(c.Drivers, "peak taint exposure above 50%")
	}
	if blacklistHit {
		raw = math.Max(raw, 70)
		c.Confidence = 0.95
		c.Drivers = append(c.Drivers, "public blacklist hit")
	}
	c.RawScore = clamp(raw, 0, 100)
	return c
}

func scoreGraph(stats models.GraphStats, weight float64) models.RiskComponent {
	c := models.RiskComponent{Name: ComponentGraph, Weight: weight}
	if stats.NodeCount == 0 {
		c.Confidence = 0.2
		return c
	}

	raw := stats.Degree.GiniCoefficient * 60
	if stats.Degree.MaxFanOut > largeFanOutDriver {
		raw += 20
		c.Drivers = append(c.Drivers, "large fan-out from a single address")
	}
	if stats.Connectivity.Enabled && stats.Connectivity.Data.Density > 0 && stats.Connectivity.Data.Density < 0.05 {
		raw += 10
		c.Drivers = append(c.Drivers, "sparse, fragmented transfer graph")
	}
	c.RawScore = clamp(raw, 0, 100)
	c.Confidence = 0.7
	if !stats.Connectivity.Enabled {
		c.Confidence = 0.4
	}
	return c
}

func scoreEntity(clusters []models.Cluster, weight float64) models.RiskComponent {
	c := models.RiskComponent{Name: ComponentEntity, Weight: weight}
	if len(clusters) == 0 {
		c.Confidence = 0.3
		return c
	}

	largest := 0
	for _, cl := range clusters {
		if len(cl.Members) > largest {
			largest = len(cl.Members)
		}
	}
	raw := math.Min(float64(largest)*4, 80)
	if len(clusters) == 1 && largest > 5 {
		raw += 15
		c.Drivers = append(c.Drivers, "single dominant cluster spans most observed addresses")
	}
	c.RawScore = clamp(raw, 0, 100)
	c.Confidence = 0.6
	return c
}

func scoreIntegration(events []models.IntegrationEvent, weight float64) models.RiskComponent {
	c := models.RiskComponent{Name: ComponentIntegration, Weight: weight}
	if len(events) == 0 {
		c.RawScore = 0
		c.Confidence = 0.6
		return c
	}

	raw := 0.0
	mixerSeen := false
	for _, e := range events {
		switch e.Type {
		case "mixer":
			raw += 35
			mixerSeen = true
		case "bridge":
			raw += 20
		case "cex":
			raw += 10
		}
		raw += e.Confidence * 10
	}
	if mixerSeen {
		c.Drivers = append(c.Drivers, "mixer interaction detected")
	}
	if len(events) >= manyIntegrationsDriver {
		c.Drivers = append(c.Drivers, "multiple integration events observed")
	}
	c.RawScore = clamp(raw, 0, 100)
	c.Confidence = 0.8
	return c
}

func scoreFlow(result models.FlowAttributionResult, weight float64) models.RiskComponent {
	c := models.RiskComponent{Name: ComponentFlow, Weight: weight}
	if result.ActiveFlows == 0 {
		c.Confidence = 0.4
		return c
	}

	maxFraction := 0.0
	for _, a := range result.Attributions {
		if a.AttributedFraction > maxFraction {
			maxFraction = a.AttributedFraction
		}
	}
	raw := maxFraction * 70
	if result.ActiveFlows == 1 {
		raw += 15
		c.Drivers = append(c.Drivers, "value concentrated on a single attributed flow")
	}
	c.RawScore = clamp(raw, 0, 100)
	c.Confidence = clamp(result.AttributionQuality, 0.3, 1.0)
	return c
}

func scoreTransactions(txs []models.ParsedTransaction, weight float64) models.RiskComponent {
	c := models.RiskComponent{Name: ComponentTransactions, Weight: weight}
	if len(txs) == 0 {
		c.Confidence = 0.3
		return c
	}

	var outflows, total float64
	validTimestamps := 0
	for _, tx := range txs {
		total += math.Abs(tx.SolDelta)
		if tx.SolDelta < 0 {
			outflows += -tx.SolDelta
		}
		if tx.TimestampValid {
			validTimestamps++
		}
	}

	raw := 0.0
	if total > 0 {
		raw = (outflows / total) * 40
	}
	if outflows > 100 {
		raw += 25
		c.Drivers = append(c.Drivers, "large cumulative outflow across sampled transactions")
	}
	switch {
	case len(txs) >= extremeVolumeTxCount:
		raw += 20
		c.Drivers = append(c.Drivers, "extreme_volume")
	case len(txs) >= veryHighVolumeTxCount:
		raw += 12
		c.Drivers = append(c.Drivers, "very_high_volume")
	case len(txs) >= highVolumeTxCount:
		raw += 6
		c.Drivers = append(c.Drivers, "high_volume")
	}
	c.RawScore = clamp(raw, 0, 100)
	c.Confidence = clamp(float64(validTimestamps)/float64(len(txs)), 0.3, 1.0)
	return c
}

func deriveFlagsAndRecommendations(components []models.RiskComponent, in Inputs) (flags, recommendations []string) {
	for _, c := range components {
		if c.RawScore >= 80 {
			flags = append(flags, c.Name+"_critical")
		}
	}
	if in.DataQuality.QualityScore > 0 && in.DataQuality.QualityScore < 0.5 {
		flags = append(flags, "low_data_quality")
		recommendations = append(recommendations, "expand the signature window: timestamp/balance coverage is too sparse for high confidence")
	}
	for _, e := range in.Integrations {
		if e.Type == "mixer" {
			recommendations = append(recommendations, "escalate: funds routed through a known mixing service")
			break
		}
	}
	if len(flags) == 0 {
		flags = append(flags, "none")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "no further action indicated at this risk level")
	}
	return flags, recommendations
}

// assessmentQuality is the product of component coverage (fraction of
// components with confidence >= 0.5) and mean component confidence; when
// the data-quality score is positive it is blended in as 0.7*product +
// 0.3*quality_score. The result is multiplied by the RPC pool's cumulative
// success_rate. A pool that has made no calls yet contributes a neutral
// factor of 1 rather than penalizing quality.
func assessmentQuality(components []models.RiskComponent, dq models.DataQuality, rpc solanarpc.PoolMetrics) float64 {
	covered := 0
	for _, c := range components {
		if c.Confidence >= 0.5 {
			covered++
		}
	}
	coverage := float64(covered) / float64(len(components))
	meanConf := meanConfidence(components)

	quality := coverage * meanConf
	if dq.QualityScore > 0 {
		quality = quality * 0.7 + dq.QualityScore*0.3
	}

	rpcFactor := 1.0
	if rpc.TotalCalls > 0 {
		rpcFactor = clamp(rpc.SuccessRate, 0, 1)
	}
	quality *= rpcFactor

	return clamp(quality, 0, 1)
}

func meanConfidence(components []models.RiskComponent) float64 {
	if len(components) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range components {
		total += c.Confidence
	}
	return total / float64(len(components))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
