package detective

import (
	"context"
	"errors"
	"testing"

	"github.com/ghosthunter/detective/internal/narrator"
	"github.com/ghosthunter/detective/internal/pipeline"
	"github.com/ghosthunter/detective/pkg/models"
)

const testWallet = "11111111111111111111111111111111111111111"

type fakeSnapshotProvider struct {
	snap *pipeline.Snapshot
	err  error
}

func (f *fakeSnapshotProvider) Snapshot(ctx context.Context, address string) (*pipeline.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func baseSnapshot() *pipeline.Snapshot {
	return &pipeline.Snapshot{
		WalletAddress: testWallet,
		ParsedTxs:     []models.ParsedTransaction{{SolDelta: 1.5, BlockTime: 1700000000}},
		Edges: []models.Edge{
			{From: testWallet, To: "counterparty", ValueSOL: 1.5},
		},
		GraphStats: models.GraphStats{
			NodeCount: 2,
			EdgeCount: 1,
			Degree:    models.DegreeStats{FanRatio: 1, GiniCoefficient: 0.2, MaxFanOut: 1},
		},
		Clusters: []models.Cluster{{RootAddress: testWallet, Members: []string{testWallet, "counterparty"}}},
		Risk: models.RiskAssessment{
			FinalScore:        42,
			Level:             models.RiskMedium,
			Confidence:        0.8,
			AssessmentQuality: 0.9,
			Components: []models.RiskComponent{
				{Name: "graph_structure", Drivers: []string{"elevated fan-out"}},
			},
		},
	}
}

// stubNarrator always succeeds, echoing the persona id so tests can
// assert the right persona ran.
type stubNarrator struct{}

func (stubNarrator) Summarize(ctx context.Context, snap narrator.Snapshot) (string, error) {
	return "conclusion for " + snap.Persona, nil
}

// failingNarrator fails only for the named persona, modeling one agent
// erroring mid-analysis while the rest succeed.
type failingNarrator struct {
	failPersona string
}

func (f failingNarrator) Summarize(ctx context.Context, snap narrator.Snapshot) (string, error) {
	if snap.Persona == f.failPersona {
		return "", errors.New("simulated narration failure")
	}
	return "conclusion for " + snap.Persona, nil
}

// allFailNarrator fails every persona, modeling the zero-success case.
type allFailNarrator struct{}

func (allFailNarrator) Summarize(ctx context.Context, snap narrator.Snapshot) (string, error) {
	return "", errors.New("simulated narration failure")
}

func TestInvestigateSingleAgentSucceeds(t *testing.T) {
	o := New(&fakeSnapshotProvider{snap: baseSnapshot()}, stubNarrator{}, 0)
	inv, err := o.Investigate(context.Background(), testWallet, "poirot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.SuccessfulInvestigations != 1 || inv.FailedInvestigations != 0 {
		t.Fatalf("expected 1 success 0 failures, got %+v", inv)
	}
	if inv.FrameworkStatus != models.StatusCompleted {
		t.Errorf("expected completed status, got %s", inv.FrameworkStatus)
	}
	rec, ok := inv.IndividualResults["poirot"]
	if !ok {
		t.Fatal("expected a poirot record")
	}
	if rec.Status != models.DetectiveCompleted {
		t.Errorf("expected completed record, got %s: %s", rec.Status, rec.Error)
	}
	if rec.Conclusion != "conclusion for poirot" {
		t.Errorf("unexpected conclusion: %s", rec.Conclusion)
	}
}

func TestInvestigateUnknownAgentReturnsError(t *testing.T) {
	o := New(&fakeSnapshotProvider{snap: baseSnapshot()}, stubNarrator{}, 0)
	_, err := o.Investigate(context.Background(), testWallet, "not-a-real-detective")
	if err == nil {
		t.Fatal("expected an error for an unknown agent_id")
	}
}

func TestInvestigatePropagatesSnapshotError(t *testing.T) {
	o := New(&fakeSnapshotProvider{err: errors.New("rpc unreachable")}, stubNarrator{}, 0)
	_, err := o.Investigate(context.Background(), testWallet, "poirot")
	if err == nil {
		t.Fatal("expected the snapshot error to propagate")
	}
}

func TestComprehensiveAllSevenSucceed(t *testing.T) {
	o := New(&fakeSnapshotProvider{snap: baseSnapshot()}, stubNarrator{}, 0)
	inv, err := o.Comprehensive(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.SuccessfulInvestigations != len(Personas) {
		t.Errorf("expected %d successes, got %d", len(Personas), inv.SuccessfulInvestigations)
	}
	if inv.FailedInvestigations != 0 {
		t.Errorf("expected 0 failures, got %d", inv.FailedInvestigations)
	}
	if inv.FrameworkStatus != models.StatusCompleted {
		t.Errorf("expected completed status, got %s", inv.FrameworkStatus)
	}
	if len(inv.IndividualResults) != len(Personas) {
		t.Errorf("expected %d individual results, got %d", len(Personas), len(inv.IndividualResults))
	}
	if inv.ConsensusRiskScore != 42 {
		t.Errorf("expected consensus score 42, got %d", inv.ConsensusRiskScore)
	}
	if inv.ConsensusRiskLevel != models.RiskMedium {
		t.Errorf("expected consensus level medium, got %s", inv.ConsensusRiskLevel)
	}
}

func TestComprehensiveTreatsOneAgentFailureAsPartial(t *testing.T) {
	o := New(&fakeSnapshotProvider{snap: baseSnapshot()}, failingNarrator{failPersona: "marple"}, 0)
	inv, err := o.Comprehensive(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.SuccessfulInvestigations != len(Personas)-1 {
		t.Errorf("expected %d successes, got %d", len(Personas)-1, inv.SuccessfulInvestigations)
	}
	if inv.FailedInvestigations != 1 {
		t.Errorf("expected 1 failure, got %d", inv.FailedInvestigations)
	}
	if inv.FrameworkStatus != models.StatusPartial {
		t.Errorf("expected partial status, got %s", inv.FrameworkStatus)
	}
	marple, ok := inv.IndividualResults["marple"]
	if !ok {
		t.Fatal("expected a marple record even on failure")
	}
	if marple.Status != models.DetectiveFailed || marple.Error == "" {
		t.Errorf("expected marple to carry a failure and error message, got %+v", marple)
	}
}

func TestComprehensiveAllAgentsFailingYieldsAnalysisError(t *testing.T) {
	o := New(&fakeSnapshotProvider{snap: baseSnapshot()}, allFailNarrator{}, 0)
	inv, err := o.Comprehensive(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.SuccessfulInvestigations != 0 {
		t.Errorf("expected 0 successes, got %d", inv.SuccessfulInvestigations)
	}
	if inv.FailedInvestigations != len(Personas) {
		t.Errorf("expected %d failures, got %d", len(Personas), inv.FailedInvestigations)
	}
	if inv.FrameworkStatus != models.StatusAnalysisError {
		t.Errorf("expected analysis_error status, got %s", inv.FrameworkStatus)
	}
}

func TestConsensusLevelBreaksTiesBySeverity(t *testing.T) {
	levels := []models.RiskLevel{models.RiskLow, models.RiskHigh}
	got := consensusLevel(levels)
	if got != models.RiskHigh {
		t.Errorf("expected the tie broken toward the higher severity level, got %s", got)
	}
}

func TestConsensusLevelPicksMajorityMode(t *testing.T) {
	levels := []models.RiskLevel{
		models.RiskMedium, models.RiskMedium, models.RiskCritical,
	}
	got := consensusLevel(levels)
	if got != models.RiskMedium {
		t.Errorf("expected medium as the majority mode, got %s", got)
	}
}

func TestComprehensiveFanOutRespectsBoundedConcurrency(t *testing.T) {
	o := New(&fakeSnapshotProvider{snap: baseSnapshot()}, stubNarrator{}, 2)
	inv, err := o.Comprehensive(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.SuccessfulInvestigations != len(Personas) {
		t.Errorf("expected all personas to still complete under a bounded fan-out, got %d", inv.SuccessfulInvestigations)
	}
}
