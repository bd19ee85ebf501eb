package risk

// Profile is a named set of component weights summing to 1, selected by
// investigation context.
type Profile struct {
	Name    string
	Weights map[string]float64
}

// Component name keys shared across profiles and the scoring pipeline.
const (
	ComponentTaint         = "taint_exposure"
	ComponentGraph         = "graph_structure"
	ComponentEntity        = "entity_clustering"
	ComponentIntegration   = "integration_events"
	ComponentFlow          = "flow_attribution"
	ComponentTransactions  = "sample_transactions"
	ComponentDataQuality   = "data_quality"
)

// BalancedProfile is the default, regression-harness-validated profile.
var BalancedProfile = Profile{
	Name: "balanced",
	Weights: map[string]float64{
		ComponentTaint:        0.30,
		ComponentGraph:        0.15,
		ComponentEntity:       0.15,
		ComponentIntegration:  0.20,
		ComponentFlow:         0.10,
		ComponentTransactions: 0.10,
	},
}

// TaintFocusedProfile up-weights taint exposure for incident-response
// style investigations with known theft/seed addresses.
var TaintFocusedProfile = Profile{
	Name: "taint_focused",
	Weights: map[string]float64{
		ComponentTaint:        0.50,
		ComponentGraph:        0.10,
		ComponentEntity:       0.10,
		ComponentIntegration:  0.15,
		ComponentFlow:         0.10,
		ComponentTransactions: 0.05,
	},
}

// StructuralProfile up-weights graph/entity signals for bot-cluster and
// Sybil-style investigations with little incident context.
var StructuralProfile = Profile{
	Name: "structural",
	Weights: map[string]float64{
		ComponentTaint:        0.10,
		ComponentGraph:        0.30,
		ComponentEntity:       0.30,
		ComponentIntegration:  0.10,
		ComponentFlow:         0.10,
		ComponentTransactions: 0.10,
	},
}

// InvestigationContext drives profile selection and optional regression
// validation.
type InvestigationContext struct {
	TransactionCount    int
	MaxTransactionValue float64
	HasIncidentData     bool
	HasCEXInteractions  bool
	InvestigationType   string // "incident_response"/"structural"/""
	// EnableRegressionValidation, when true, runs the fixed regression
	// scenario bank alongside this assessment and attaches its summary.
	EnableRegressionValidation bool
}

// SelectProfile picks a configuration profile from investigation context.
// "balanced" is the default and the only regression-harness-validated
// profile; the others are selectable but not harness-covered.
func SelectProfile(ctx InvestigationContext) Profile {
	switch {
	case ctx.HasIncidentData || ctx.InvestigationType == "incident_response":
		return TaintFocusedProfile
	case ctx.InvestigationType == "structural":
		return StructuralProfile
	default:
		return BalancedProfile
	}
}
