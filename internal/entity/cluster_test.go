package entity

import (
	"testing"

	"github.com/ghosthunter/detective/internal/config"
	"github.com/ghosthunter/detective/pkg/models"
)

func TestMergeFromEdgesUnitesAddressesThatRepeatWithinWindow(t *testing.T) {
	ce := New()
	edges := []models.Edge{
		{From: "A", To: "B", ValueSOL: 5, BlockTime: 1000},
		{From: "A", To: "B", ValueSOL: 5, BlockTime: 1100},
		{From: "B", To: "C", ValueSOL: 3, BlockTime: 1200},
		{From: "B", To: "C", ValueSOL: 3, BlockTime: 1300},
	}
	merged := ce.MergeFromEdges(edges, nil)
	if merged != 2 {
		t.Errorf("expected 2 merges (one per repeated pair), got %d", merged)
	}
	if ce.Find("A") != ce.Find("C") {
		t.Error("expected A and C to end up in the same cluster")
	}
}

func TestMergeFromEdgesIgnoresASingleIsolatedTransfer(t *testing.T) {
	ce := New()
	edges := []models.Edge{{From: "A", To: "B", ValueSOL: 5, BlockTime: 1000}}
	merged := ce.MergeFromEdges(edges, nil)
	if merged != 0 {
		t.Errorf("expected a single one-off transfer not to trigger a merge, got %d", merged)
	}
	if ce.Find("A") == ce.Find("B") {
		t.Error("expected A and B to remain in separate clusters after one isolated transfer")
	}
}

func TestMergeFromEdgesIgnoresRepeatsOutsideTheWindow(t *testing.T) {
	ce := New()
	edges := []models.Edge{
		{From: "A", To: "B", ValueSOL: 5, BlockTime: 1000},
		{From: "A", To: "B", ValueSOL: 5, BlockTime: 1000 + coSpendWindowSeconds + 1},
	}
	merged := ce.MergeFromEdges(edges, nil)
	if merged != 0 {
		t.Errorf("expected repeats outside the co-spend window not to merge, got %d", merged)
	}
}

func TestMergeFromEdgesNeverCrossesServiceBoundary(t *testing.T) {
	cfg := &config.Config{KnownCEXAddresses: []string{"exchange1"}}
	known := config.NewStaticKnownAddresses(cfg)

	ce := New()
	edges := []models.Edge{{From: "userWallet", To: "exchange1", ValueSOL: 10}}
	merged := ce.MergeFromEdges(edges, known)

	if merged != 0 {
		t.Errorf("expected 0 merges across a service boundary, got %d", merged)
	}
	if ce.Find("userWallet") == ce.Find("exchange1") {
		t.Error("expected userWallet and exchange1 to remain in separate clusters")
	}
}

func TestClustersAggregatesTotalValue(t *testing.T) {
	ce := New()
	edges := []models.Edge{
		{From: "A", To: "B", ValueSOL: 10, BlockTime: 1000},
		{From: "A", To: "B", ValueSOL: 10, BlockTime: 1100},
		{From: "A", To: "C", ValueSOL: 5, BlockTime: 1000},
		{From: "A", To: "C", ValueSOL: 5, BlockTime: 1100},
	}
	ce.MergeFromEdges(edges, nil)

	clusters := ce.Clusters()
	var found *models.Cluster
	for i := range clusters {
		if len(clusters[i].Members) == 3 {
			found = &clusters[i]
		}
	}
	if found == nil {
		t.Fatal("expected a single 3-member cluster")
	}
	if found.TotalValue != 30 {
		t.Errorf("expected total value 30, got %v", found.TotalValue)
	}
}

func TestUnionReturnsFalseWhenAlreadyMerged(t *testing.T) {
	ce := New()
	ce.Union("A", "B")
	if ce.Union("A", "B") {
		t.Error("expected second union of the same pair to report no merge")
	}
}
