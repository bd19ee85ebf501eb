// Package parser implements the parsing and data-quality stage (C4):
// turning raw getTransaction/getSignaturesForAddress results into signed
// SOL deltas, directions, counterparties, and a data-quality score,
// grounded on the SOL-balance-diff idiom used for RPC-based Solana
// scanning elsewhere in the corpus (pre/post balance diff over 1e9,
// timestamp banding).
package parser

import (
	"github.com/ghosthunter/detective/pkg/models"
)

// ParseTransaction derives a ParsedTransaction from raw, for the account
// at address's position in raw's account key list. If address does not
// appear in the account keys, SolDelta is zero and Direction is unknown.
func ParseTransaction(raw models.RawTransaction, address string) models.ParsedTransaction {
	idx := indexOf(raw.AccountKeys, address)

	solDelta := 0.0
	if idx >= 0 && idx < len(raw.PreBalances) && idx < len(raw.PostBalances) {
		solDelta = float64(raw.PostBalances[idx]-raw.PreBalances[idx]) / float64(models.LamportsPerSOL)
	}

	direction := models.DirectionNeutral
	switch {
	case solDelta > 0:
		direction = models.DirectionIn
	case solDelta < 0:
		direction = models.DirectionOut
	case idx < 0:
		direction = models.DirectionUnknown
	}

	return models.ParsedTransaction{
		Signature:      raw.Signature,
		Slot:           raw.Slot,
		BlockTime:      raw.BlockTime,
		TimestampValid: isValidTimestamp(raw.BlockTime),
		SolDelta:       solDelta,
		FeeSOL:         float64(raw.Fee) / float64(models.LamportsPerSOL),
		Direction:      direction,
		Counterparties: counterparties(raw.AccountKeys, address),
	}
}

// DeriveLinks builds the directed edges a transaction contributes to the
// wallet graph: one edge per counterparty, oriented by the wallet's
// balance delta sign, valued by the absolute SOL delta (split evenly
// across counterparties absent finer per-counterparty balance data).
func DeriveLinks(raw models.RawTransaction, address string) []models.Edge {
	parsed := ParseTransaction(raw, address)
	if len(parsed.Counterparties) == 0 || parsed.SolDelta == 0 {
		return nil
	}

	perCounterparty := absFloat(parsed.SolDelta) / float64(len(parsed.Counterparties))
	edges := make([]models.Edge, 0, len(parsed.Counterparties))
	for _, cp := range parsed.Counterparties {
		edge := models.Edge{
			ValueSOL:  perCounterparty,
			Slot:      raw.Slot,
			BlockTime: raw.BlockTime,
			Signature: raw.Signature,
		}
		if parsed.Direction == models.DirectionOut {
			edge.From, edge.To = address, cp
		} else {
			edge.From, edge.To = cp, address
		}
		edges = append(edges, edge)
	}
	return edges
}

// ComputeQuality aggregates data-quality metrics across a set of parsed
// transactions and their originating signature records: quality_score =
// 0.5*timestamp_quality + 0.5*(1 - missing_data_rate).
func ComputeQuality(signatures []models.SignatureRecord, parsed []models.ParsedTransaction) models.DataQuality {
	if len(signatures) == 0 {
		return models.DataQuality{}
	}

	validTimestamps := 0
	qualitySum := 0.0
	for _, s := range signatures {
		qualitySum += s.TimestampQuality
		if s.TimestampQuality > 0 {
			validTimestamps++
		}
	}
	timestampQuality := qualitySum / float64(len(signatures))
	timestampCoverage := float64(validTimestamps) / float64(len(signatures))

	missingFees := 0
	missingSignatures := len(signatures) - len(parsed)
	for _, p := range parsed {
		if p.FeeSOL == 0 {
			missingFees++
		}
	}

	totalExpected := len(signatures)
	missingTotal := missingSignatures
	if totalExpected == 0 {
		totalExpected = 1
	}
	missingDataRate := float64(missingTotal) / float64(totalExpected)

	qualityScore := 0.5*timestampQuality + 0.5*(1-missingDataRate)

	return models.DataQuality{
		ValidTimestamps:   validTimestamps,
		TimestampCoverage: timestampCoverage,
		TimestampQuality:  timestampQuality,
		MissingFees:       missingFees,
		MissingSignatures: missingSignatures,
		QualityScore:      qualityScore,
	}
}

// isValidTimestamp reports whether blockTime falls in the plausible
// mainnet era (2020-01-01 through 2030-01-01 UTC).
func isValidTimestamp(blockTime int64) bool {
	const y2020 = 1577836800
	const y2030 = 1893456000
	return blockTime >= y2020 && blockTime <= y2030
}

func indexOf(keys []string, address string) int {
	for i, k := range keys {
		if k == address {
			return i
		}
	}
	return -1
}

// counterparties returns every account key other than address, which is
// the best-effort counterparty set absent instruction-level parsing of
// which key actually received/sent funds.
func counterparties(keys []string, address string) []string {
	var out []string
	for _, k := range keys {
		if k != address {
			out = append(out, k)
		}
	}
	return out
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
