package parser

import (
	"testing"

	"github.com/ghosthunter/detective/pkg/models"
)

func TestParseTransactionComputesSignedSolDelta(t *testing.T) {
	raw := models.RawTransaction{
		Signature:    "sig1",
		Slot:         100,
		BlockTime:    1700000000,
		AccountKeys:  []string{"walletA", "walletB"},
		PreBalances:  []int64{1_000_000_000, 0},
		PostBalances: []int64{500_000_000, 495_000_000},
		Fee:          5000,
	}

	parsed := ParseTransaction(raw, "walletA")
	if parsed.SolDelta != -0.5 {
		t.Errorf("expected sol delta -0.5, got %v", parsed.SolDelta)
	}
	if parsed.Direction != models.DirectionOut {
		t.Errorf("expected direction out, got %v", parsed.Direction)
	}
	if !parsed.TimestampValid {
		t.Error("expected timestamp valid for 2023 blockTime")
	}
	if len(parsed.Counterparties) != 1 || parsed.Counterparties[0] != "walletB" {
		t.Errorf("unexpected counterparties: %v", parsed.Counterparties)
	}
}

func TestParseTransactionUnknownDirectionWhenAddressAbsent(t *testing.T) {
	raw := models.RawTransaction{
		AccountKeys:  []string{"other1", "other2"},
		PreBalances:  []int64{1, 2},
		PostBalances: []int64{1, 2},
	}
	parsed := ParseTransaction(raw, "walletA")
	if parsed.Direction != models.DirectionUnknown {
		t.Errorf("expected direction unknown, got %v", parsed.Direction)
	}
}

func TestDeriveLinksOrientsByDirection(t *testing.T) {
	raw := models.RawTransaction{
		Signature:    "sig1",
		Slot:         100,
		AccountKeys:  []string{"walletA", "walletB"},
		PreBalances:  []int64{0, 1_000_000_000},
		PostBalances: []int64{1_000_000_000, 0},
	}
	edges := DeriveLinks(raw, "walletA")
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].From != "walletB" || edges[0].To != "walletA" {
		t.Errorf("expected edge walletB->walletA, got %s->%s", edges[0].From, edges[0].To)
	}
}

func TestComputeQualityScoresTimestampsAndMissingData(t *testing.T) {
	sigs := []models.SignatureRecord{
		{Signature: "a", TimestampQuality: 1.0},
		{Signature: "b", TimestampQuality: 1.0},
		{Signature: "c", TimestampQuality: 0.0},
	}
	parsed := []models.ParsedTransaction{
		{Signature: "a", FeeSOL: 0.000005},
		{Signature: "b", FeeSOL: 0.000005},
	}

	q := ComputeQuality(sigs, parsed)
	if q.ValidTimestamps != 2 {
		t.Errorf("expected 2 valid timestamps, got %d", q.ValidTimestamps)
	}
	if q.MissingSignatures != 1 {
		t.Errorf("expected 1 missing signature (fetch gap), got %d", q.MissingSignatures)
	}
	if q.QualityScore <= 0 || q.QualityScore > 1 {
		t.Errorf("expected quality score in (0,1], got %v", q.QualityScore)
	}
}

func TestComputeQualityEmptyInput(t *testing.T) {
	q := ComputeQuality(nil, nil)
	if q.QualityScore != 0 {
		t.Errorf("expected zero-value quality for empty input, got %v", q)
	}
}
