// Package detective implements the multi-agent orchestrator (C12): seven
// stable personas produce narrative conclusions over one shared analysis
// snapshot, fanned out concurrently with partial-failure tolerance,
// generalizing the corpus's bounded worker-pool/fan-out idiom from block
// scanning into multi-perspective wallet investigation.
package detective

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ghosthunter/detective/internal/narrator"
	"github.com/ghosthunter/detective/internal/pipeline"
	"github.com/ghosthunter/detective/pkg/models"
)

// SnapshotProvider is the subset of *pipeline.Pipeline the orchestrator
// needs, so tests can supply a fake without standing up RPC servers.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, address string) (*pipeline.Snapshot, error)
}

// Orchestrator runs one or all seven detective personas over a wallet's
// shared snapshot.
type Orchestrator struct {
	snapshots SnapshotProvider
	narrator  narrator.Narrator
	fanOutCap int
}

// New builds an Orchestrator. fanOutCap bounds concurrent persona runs
// during a comprehensive investigation (0 means unbounded, i.e. all seven
// at once).
func New(snapshots SnapshotProvider, n narrator.Narrator, fanOutCap int) *Orchestrator {
	return &Orchestrator{snapshots: snapshots, narrator: n, fanOutCap: fanOutCap}
}

// Investigate runs a single named persona over wallet's snapshot.
func (o *Orchestrator) Investigate(ctx context.Context, wallet, agentID string) (models.Investigation, error) {
	persona, ok := personaByID(agentID)
	if !ok {
		return models.Investigation{}, fmt.Errorf("detective: unknown agent_id %q (known: %v)", agentID, knownPersonaIDs())
	}

	snap, err := o.snapshots.Snapshot(ctx, wallet)
	if err != nil {
		return models.Investigation{}, err
	}

	record := o.runAgent(ctx, persona, snap)
	status := models.StatusCompleted
	failed := 0
	if record.Status == models.DetectiveFailed {
		status = models.StatusAnalysisError
		failed = 1
	}

	return models.Investigation{
		InvestigationID:          uuid.New().String(),
		WalletAddress:            wallet,
		IndividualResults:        map[string]models.DetectiveRecord{agentID: record},
		SuccessfulInvestigations: boolToInt(record.Status == models.DetectiveCompleted),
		FailedInvestigations:     failed,
		ConsensusRiskScore:       int(round(record.RiskScore)),
		ConsensusRiskLevel:       record.RiskLevel,
		Timestamp:                time.Now(),
		FrameworkStatus:          status,
	}, nil
}

// Comprehensive fans out all seven personas concurrently over wallet's
// snapshot, bounded by fanOutCap, and aggregates the consensus. It
// succeeds as long as at least one persona completes.
func (o *Orchestrator) Comprehensive(ctx context.Context, wallet string) (models.Investigation, error) {
	snap, err := o.snapshots.Snapshot(ctx, wallet)
	if err != nil {
		return models.Investigation{}, err
	}

	records := make([]models.DetectiveRecord, len(Personas))

	g, gctx := errgroup.WithContext(ctx)
	if o.fanOutCap > 0 {
		g.SetLimit(o.fanOutCap)
	}
	for i, persona := range Personas {
		i, persona := i, persona
		g.Go(func() error {
			records[i] = o.runAgent(gctx, persona, snap)
			return nil
		})
	}
	_ = g.Wait() // individual agent failures are captured per-record, never abort the fan-out

	individualResults := make(map[string]models.DetectiveRecord, len(records))
	successful, failed := 0, 0
	var completedScores []float64
	var completedLevels []models.RiskLevel
	for _, rec := range records {
		individualResults[rec.ID] = rec
		if rec.Status == models.DetectiveCompleted {
			successful++
			completedScores = append(completedScores, rec.RiskScore)
			completedLevels = append(completedLevels, rec.RiskLevel)
		} else {
			failed++
		}
	}

	status := models.StatusCompleted
	switch {
	case successful == 0:
		status = models.StatusAnalysisError
	case failed > 0:
		status = models.StatusPartial
	}

	return models.Investigation{
		InvestigationID:          uuid.New().String(),
		WalletAddress:            wallet,
		IndividualResults:        individualResults,
		SuccessfulInvestigations: successful,
		FailedInvestigations:     failed,
		ConsensusRiskScore:       int(round(meanOf(completedScores))),
		ConsensusRiskLevel:       consensusLevel(completedLevels),
		Timestamp:                time.Now(),
		FrameworkStatus:          status,
	}, nil
}

// runAgent builds one persona's DetectiveRecord, recovering from any
// panic in view construction or narration as a failed (not aborted) run.
func (o *Orchestrator) runAgent(ctx context.Context, p Persona, snap *pipeline.Snapshot) (record models.DetectiveRecord) {
	defer func() {
		if r := recover(); r != nil {
			record = models.DetectiveRecord{
				ID:            p.ID,
				Name:          p.Name,
				Persona:       p.ID,
				Specialty:     p.Specialty,
				AnalysisFocus: p.AnalysisFocus,
				Status:        models.DetectiveFailed,
				Error:         fmt.Sprintf("%v", r),
			}
		}
	}()

	drivers, coverage, results := agentView(p, snap)
	confidence := clamp01(snap.Risk.AssessmentQuality * coverage)

	snapForNarration := narrator.Snapshot{
		WalletAddress:    snap.WalletAddress,
		Persona:          p.ID,
		AnalysisFocus:    p.AnalysisFocus,
		RiskScore:        snap.Risk.FinalScore,
		RiskLevelText:    string(snap.Risk.Level),
		Drivers:          drivers,
		LinkedAddresses:  linkedAddresses(snap, 10),
		TaintHighCount:   snap.TaintMetrics.HighTaintCount,
		IntegrationTypes: integrationTypes(snap),
	}
	conclusion, err := o.narrator.Summarize(ctx, snapForNarration)
	if err != nil {
		return models.DetectiveRecord{
			ID:            p.ID,
			Name:          p.Name,
			Persona:       p.ID,
			Specialty:     p.Specialty,
			AnalysisFocus: p.AnalysisFocus,
			Status:        models.DetectiveFailed,
			Error:         err.Error(),
		}
	}

	sampleTxs := snap.ParsedTxs
	if len(sampleTxs) > 5 {
		sampleTxs = sampleTxs[:5]
	}

	return models.DetectiveRecord{
		ID:                 p.ID,
		Name:                p.Name,
		Persona:             p.ID,
		Specialty:           p.Specialty,
		AnalysisFocus:       p.AnalysisFocus,
		Status:              models.DetectiveCompleted,
		RiskScore:           snap.Risk.FinalScore,
		RiskLevel:           snap.Risk.Level,
		Confidence:          confidence,
		Conclusion:          conclusion,
		Methodology:         fmt.Sprintf("%s:%s", p.ID, p.Specialty),
		SampleTransactions:  sampleTxs,
		LinkedAddresses:     linkedAddresses(snap, 10),
		ProgramAddresses:    programAddresses(snap, 10),
		AnalysisResults:     results,
	}
}

func integrationTypes(snap *pipeline.Snapshot) []string {
	seen := map[string]bool{}
	var out []string
	for _, ev := range snap.Integrations {
		if seen[ev.Type] {
			continue
		}
		seen[ev.Type] = true
		out = append(out, ev.Type)
	}
	return out
}

// consensusLevel is the mode of completed levels, ties broken by higher
// severity, per spec.
func consensusLevel(levels []models.RiskLevel) models.RiskLevel {
	if len(levels) == 0 {
		return ""
	}
	counts := map[models.RiskLevel]int{}
	for _, l := range levels {
		counts[l]++
	}

	var ranked []models.RiskLevel
	for l := range counts {
		ranked = append(ranked, l)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return models.SeverityRank(ranked[i]) > models.SeverityRank(ranked[j])
	})
	return ranked[0]
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int(f - 0.5))
	}
	return float64(int(f + 0.5))
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
