package risk

import (
	"testing"

	"github.com/ghosthunter/detective/internal/solanarpc"
	"github.com/ghosthunter/detective/pkg/models"
)

func TestAssessCleanWalletYieldsMinimalRisk(t *testing.T) {
	assessment := Assess(Inputs{}, InvestigationContext{})
	if assessment.Level != models.RiskMinimal {
		t.Errorf("expected MINIMAL for empty inputs, got %s", assessment.Level)
	}
	if assessment.FallbackUsed {
		t.Error("expected fallback_used=false for the full engine path")
	}
	if assessment.ConfigurationUsed != "balanced" {
		t.Errorf("expected balanced profile by default, got %s", assessment.ConfigurationUsed)
	}
}

func criticalScenarioInputs() Inputs {
	return Inputs{
		TaintResults: []models.TaintResult{{Address: "w", Score: 0.99}},
		TaintMetrics: models.TaintMetrics{HighTaintCount: 1},
		GraphStats: models.GraphStats{
			NodeCount: 50,
			Degree:    models.DegreeStats{GiniCoefficient: 1.0, MaxFanOut: 50},
			Connectivity: models.EnabledStage(models.ConnectivitySummary{
				Density: 0.01,
			}),
		},
		Clusters: []models.Cluster{{RootAddress: "w", Members: make([]string, 30)}},
		Integrations: []models.IntegrationEvent{
			{Address: "w", Type: "mixer", Confidence: 1.0},
			{Address: "w", Type: "mixer", Confidence: 1.0},
		},
		FlowAttribution: models.FlowAttributionResult{
			ActiveFlows:        1,
			Attributions:       []models.FlowAttribution{{AttributedFraction: 1.0}},
			AttributionQuality: 1.0,
		},
		SampleTxs: []models.ParsedTransaction{
			{SolDelta: -150, TimestampValid: true},
		},
	}
}

func TestAssessHighTaintAndMixerIntegrationYieldsCriticalRisk(t *testing.T) {
	assessment := Assess(criticalScenarioInputs(), InvestigationContext{})
	if assessment.Level != models.RiskCritical {
		t.Errorf("expected CRITICAL, got %s (score %v)", assessment.Level, assessment.FinalScore)
	}
	if assessment.FinalScore < 80 {
		t.Errorf("expected final_score >= 80 for CRITICAL, got %v", assessment.FinalScore)
	}
}

func TestAssessFinalScoreNeverExceedsHundred(t *testing.T) {
	in := criticalScenarioInputs()
	in.Integrations = append(in.Integrations, models.IntegrationEvent{Address: "w", Type: "mixer", Confidence: 1.0})
	assessment := Assess(in, InvestigationContext{})
	if assessment.FinalScore > 100 {
		t.Errorf("expected final_score clamped to 100, got %v", assessment.FinalScore)
	}
}

func TestAssessIncidentContextSelectsTaintFocusedProfile(t *testing.T) {
	assessment := Assess(Inputs{}, InvestigationContext{HasIncidentData: true})
	if assessment.ConfigurationUsed != "taint_focused" {
		t.Errorf("expected taint_focused profile for incident context, got %s", assessment.ConfigurationUsed)
	}
}

func TestAssessStructuralContextSelectsStructuralProfile(t *testing.T) {
	assessment := Assess(Inputs{}, InvestigationContext{InvestigationType: "structural"})
	if assessment.ConfigurationUsed != "structural" {
		t.Errorf("expected structural profile, got %s", assessment.ConfigurationUsed)
	}
}

func TestAssessWeightsSumComponentContributionsIntoFinalScore(t *testing.T) {
	in := Inputs{
		TaintResults: []models.TaintResult{{Address: "w", Score: 0.5}},
	}
	assessment := Assess(in, InvestigationContext{})

	sum := 0.0
	for _, c := range assessment.Components {
		sum += c.Contribution
	}
	if diff := sum - assessment.FinalScore; diff > 0.1 || diff < -0.1 {
		t.Errorf("expected final_score to equal the sum of component contributions, got %v vs %v", assessment.FinalScore, sum)
	}
}

func TestAssessBlacklistHitRaisesTaintFloorAndAddsDriver(t *testing.T) {
	assessment := Assess(Inputs{BlacklistHit: true}, InvestigationContext{})

	var taint models.RiskComponent
	for _, c := range assessment.Components {
		if c.Name == ComponentTaint {
			taint = c
		}
	}
	if taint.RawScore < 70 {
		t.Errorf("expected a blacklist hit to raise the taint component's raw_score floor to 70, got %v", taint.RawScore)
	}
	found := false
	for _, d := range taint.Drivers {
		if d == "public blacklist hit" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a 'public blacklist hit' driver, got %v", taint.Drivers)
	}
}

func TestAssessLowDataQualityFlagsAndRecommends(t *testing.T) {
	in := Inputs{DataQuality: models.DataQuality{QualityScore: 0.2}}
	assessment := Assess(in, InvestigationContext{})

	found := false
	for _, f := range assessment.Flags {
		if f == "low_data_quality" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected low_data_quality flag, got %v", assessment.Flags)
	}
}

func TestFallbackReportsFallbackUsedAndBalancedProfile(t *testing.T) {
	txs := []models.ParsedTransaction{
		{SolDelta: -50, TimestampValid: true},
		{SolDelta: -60, TimestampValid: true},
	}
	assessment := Fallback(txs)
	if !assessment.FallbackUsed {
		t.Error("expected fallback_used=true")
	}
	if assessment.ConfigurationUsed != BalancedProfile.Name {
		t.Errorf("expected balanced profile name in fallback, got %s", assessment.ConfigurationUsed)
	}
	if len(assessment.Components) != 1 {
		t.Errorf("expected exactly one component (sample_transactions) in fallback, got %d", len(assessment.Components))
	}
}

func TestFallbackEmptyTransactionsYieldsMinimalLowConfidence(t *testing.T) {
	assessment := Fallback(nil)
	if assessment.Level != models.RiskMinimal {
		t.Errorf("expected MINIMAL for no sample transactions, got %s", assessment.Level)
	}
	if assessment.Confidence >= 0.3 {
		t.Errorf("expected low confidence for fallback with no transactions, got %v", assessment.Confidence)
	}
}

func TestSelectProfileDefaultsToBalanced(t *testing.T) {
	p := SelectProfile(InvestigationContext{})
	if p.Name != "balanced" {
		t.Errorf("expected balanced default profile, got %s", p.Name)
	}
	sum := 0.0
	for _, w := range p.Weights {
		sum += w
	}
	if sum < 0.99 || sum > 1.01 {
		t.Errorf("expected profile weights to sum to ~1, got %v", sum)
	}
}

func TestAssessOmitsRegressionByDefault(t *testing.T) {
	assessment := Assess(Inputs{}, InvestigationContext{})
	if assessment.Regression != nil {
		t.Errorf("expected no regression summary without the enabling flag, got %+v", assessment.Regression)
	}
}

func TestAssessRunsRegressionWhenEnabled(t *testing.T) {
	assessment := Assess(Inputs{}, InvestigationContext{EnableRegressionValidation: true})
	if assessment.Regression == nil {
		t.Fatal("expected a regression summary when EnableRegressionValidation is set")
	}
	if assessment.Regression.ScenarioCount == 0 {
		t.Error("expected the attached regression summary to cover a non-empty scenario bank")
	}
}

func TestAssessFactorsRPCSuccessRateIntoAssessmentQuality(t *testing.T) {
	in := Inputs{TaintResults: []models.TaintResult{{Address: "w", Score: 0.5}}}

	healthy := in
	healthy.RPCMetrics = solanarpc.PoolMetrics{TotalCalls: 10, SuccessRate: 1.0}
	degraded := in
	degraded.RPCMetrics = solanarpc.PoolMetrics{TotalCalls: 10, SuccessRate: 0.2}

	healthyAssessment := Assess(healthy, InvestigationContext{})
	degradedAssessment := Assess(degraded, InvestigationContext{})

	if degradedAssessment.AssessmentQuality >= healthyAssessment.AssessmentQuality {
		t.Errorf("expected a low RPC success_rate to reduce assessment_quality, got degraded=%v healthy=%v",
			degradedAssessment.AssessmentQuality, healthyAssessment.AssessmentQuality)
	}
}

func TestScoreTransactionsEmitsVolumeDriverForHighActivityWallets(t *testing.T) {
	txs := make([]models.ParsedTransaction, extremeVolumeTxCount)
	for i := range txs {
		txs[i] = models.ParsedTransaction{SolDelta: -1, TimestampValid: true}
	}
	c := scoreTransactions(txs, 1.0)

	found := false
	for _, d := range c.Drivers {
		if d == "extreme_volume" || d == "very_high_volume" || d == "high_volume" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a volume driver for %d sampled transactions, got %v", len(txs), c.Drivers)
	}
}

func TestRunRegressionReportsPassRateAcrossScenarioBank(t *testing.T) {
	summary := RunRegression()
	if summary.ScenarioCount == 0 {
		t.Fatal("expected a non-empty scenario bank")
	}
	if summary.PassRate < 0 || summary.PassRate > 1 {
		t.Errorf("expected pass_rate in [0,1], got %v", summary.PassRate)
	}
}
