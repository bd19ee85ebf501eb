package entity

import (
	"github.com/ghosthunter/detective/internal/config"
	"github.com/ghosthunter/detective/pkg/models"
)

// burstFanThreshold flags a deposit-then-burst pattern: an address with
// any inflow that sends to at least this many edges. Edge timing is not
// checked.
const burstFanThreshold = 5

// DetectIntegrations pattern-matches graph edges against a known-address
// catalog (CEX deposit, bridge contract, mixer signatures) plus a
// structural deposit-then-burst test (inflow plus fan-out count; no
// fan-in/fan-out ratio is computed), and reports confidence-scored
// integration events.
func DetectIntegrations(g interface {
	InflowValue(addr string) float64
	OutflowValue(addr string) float64
}, edges []models.Edge, known config.KnownAddressProvider) []models.IntegrationEvent {
	if known == nil {
		return nil
	}

	fanOut := make(map[string]int)
	fanIn := make(map[string]int)
	for _, e := range edges {
		fanOut[e.From]++
		fanIn[e.To]++
	}

	seen := make(map[string]bool)
	var events []models.IntegrationEvent

	for _, e := range edges {
		for _, addr := range []string{e.From, e.To} {
			if seen[addr] {
				continue
			}
			svc, ok := known.Lookup(addr)
			if !ok {
				continue
			}
			seen[addr] = true

			direction := "inbound"
			if g.OutflowValue(addr) > g.InflowValue(addr) {
				direction = "outbound"
			}

			confidence := 0.8
			detail := "known_address_match"
			if fanOut[addr] >= burstFanThreshold && g.InflowValue(addr) > 0 {
				confidence = 0.95
				detail = "deposit_then_burst"
			}

			events = append(events, models.IntegrationEvent{
				Address:    addr,
				Type:       string(svc),
				Direction:  direction,
				Confidence: confidence,
				Detail:     detail,
			})
		}
	}

	return events
}
