package detective

import (
	"fmt"

	"github.com/ghosthunter/detective/internal/pipeline"
	"github.com/ghosthunter/detective/pkg/models"
)

// agentView selects the persona-weighted subset of the shared snapshot:
// the drivers it cites, the data-coverage fraction backing its
// confidence, and its own analysis_results lines. Every persona reads the one shared Risk
// assessment computed once by C11 — only the supporting narrative
// differs, per spec.
func agentView(p Persona, snap *pipeline.Snapshot) (drivers []string, coverage float64, results []string) {
	switch p.ID {
	case "poirot":
		drivers = componentDrivers(snap.Risk, "sample_transactions")
		coverage = boundedRatio(float64(snap.DataQuality.ValidTimestamps), float64(len(snap.Signatures)))
		results = []string{
			fmt.Sprintf("%d transactions sampled, %.0f%% timestamp coverage", len(snap.ParsedTxs), snap.DataQuality.TimestampCoverage*100),
		}

	case "marple":
		drivers = componentDrivers(snap.Risk, "graph_structure")
		coverage = boolRatio(snap.GraphStats.NodeCount > 0)
		results = []string{
			fmt.Sprintf("fan ratio %.2f across %d nodes / %d edges", snap.GraphStats.Degree.FanRatio, snap.GraphStats.NodeCount, snap.GraphStats.EdgeCount),
		}

	case "spade":
		drivers = allComponentDrivers(snap.Risk)
		coverage = snap.Risk.AssessmentQuality
		results = []string{
			fmt.Sprintf("final risk score %.0f (%s), confidence %.2f", snap.Risk.FinalScore, snap.Risk.Level, snap.Risk.Confidence),
		}

	case "marlowe":
		drivers = componentDrivers(snap.Risk, "integration_events")
		coverage = boolRatio(len(snap.Integrations) > 0 || snap.FlowAttribution.ActiveFlows > 0)
		results = []string{
			fmt.Sprintf("%d integration event(s), %d active attributed flow(s)", len(snap.Integrations), snap.FlowAttribution.ActiveFlows),
		}
		if len(snap.EvidencePaths) > 0 {
			results = append(results, fmt.Sprintf("%d evidence path(s) traced, longest %d hops", len(snap.EvidencePaths), maxHops(snap.EvidencePaths)))
		}

	case "dupin":
		drivers = componentDrivers(snap.Risk, "graph_structure")
		coverage = boolRatio(snap.GraphStats.Connectivity.Enabled)
		results = []string{
			fmt.Sprintf("gini coefficient %.2f, max fan-out %d", snap.GraphStats.Degree.GiniCoefficient, snap.GraphStats.Degree.MaxFanOut),
		}

	case "shadow":
		drivers = componentDrivers(snap.Risk, "entity_clustering")
		coverage = boolRatio(len(snap.Clusters) > 0)
		results = []string{
			fmt.Sprintf("%d cluster(s) resolved via weighted union-find", len(snap.Clusters)),
		}

	case "raven":
		drivers = allComponentDrivers(snap.Risk)
		coverage = snap.Risk.AssessmentQuality
		results = summarizeAllStages(snap)

	default:
		coverage = 0.3
	}

	return drivers, coverage, results
}

func componentDrivers(r models.RiskAssessment, name string) []string {
	for _, c := range r.Components {
		if c.Name == name {
			return c.Drivers
		}
	}
	return nil
}

func allComponentDrivers(r models.RiskAssessment) []string {
	var out []string
	for _, c := range r.Components {
		out = append(out, c.Drivers...)
	}
	return out
}

func summarizeAllStages(snap *pipeline.Snapshot) []string {
	return []string{
		fmt.Sprintf("identity: exists=%v category=%s", snap.Identity.Exists, snap.Identity.Category),
		fmt.Sprintf("graph: %d nodes, %d edges", snap.GraphStats.NodeCount, snap.GraphStats.EdgeCount),
		fmt.Sprintf("taint: %d tainted address(es), mean score %.3f", snap.TaintMetrics.TotalTainted, snap.TaintMetrics.MeanScore),
		fmt.Sprintf("entity: %d cluster(s)", len(snap.Clusters)),
		fmt.Sprintf("integration: %d event(s)", len(snap.Integrations)),
		fmt.Sprintf("flow: %d active flow(s)", snap.FlowAttribution.ActiveFlows),
		fmt.Sprintf("influence: network fragility %.3f", snap.Influence.NetworkFragility),
		fmt.Sprintf("risk: %.0f (%s)", snap.Risk.FinalScore, snap.Risk.Level),
	}
}

// linkedAddresses returns wallet-to-wallet counterparties only: addresses
// whose resolved identity is not program-like. An address with no resolved
// identity (lookup failed or was never attempted) is treated as a wallet,
// since program-exclusion requires positive evidence.
func linkedAddresses(snap *pipeline.Snapshot, limit int) []string {
	return counterpartyAddressesWhere(snap, limit, func(identity models.AccountIdentity, resolved bool) bool {
		return !resolved || !identity.IsProgramLike()
	})
}

// programAddresses returns counterparties whose resolved identity is
// executable or a token mint: the program/token-mint side of the
// identity-lookup triage that linkedAddresses excludes.
func programAddresses(snap *pipeline.Snapshot, limit int) []string {
	return counterpartyAddressesWhere(snap, limit, func(identity models.AccountIdentity, resolved bool) bool {
		return resolved && identity.IsProgramLike()
	})
}

func counterpartyAddressesWhere(snap *pipeline.Snapshot, limit int, keep func(identity models.AccountIdentity, resolved bool) bool) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range snap.Edges {
		for _, addr := range []string{e.From, e.To} {
			if addr == snap.WalletAddress || seen[addr] {
				continue
			}
			seen[addr] = true
			identity, resolved := snap.CounterpartyIdentities[addr]
			if !keep(identity, resolved) {
				continue
			}
			out = append(out, addr)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

func maxHops(paths []models.EvidencePath) int {
	max := 0
	for _, p := range paths {
		if p.Hops > max {
			max = p.Hops
		}
	}
	return max
}

func boolRatio(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.3
}

func boundedRatio(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0.3
	}
	ratio := numerator / denominator
	if ratio < 0.3 {
		return 0.3
	}
	return ratio
}
