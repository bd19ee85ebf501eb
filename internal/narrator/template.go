package narrator

import (
	"context"
	"fmt"
	"strings"
)

// templateNarrator is the default, deterministic Narrator: no network
// call, no API key, persona voice expressed as a fixed phrase bank keyed
// by persona id.
type templateNarrator struct{}

// NewTemplate returns the deterministic template narrator.
func NewTemplate() Narrator {
	return templateNarrator{}
}

var personaVoice = map[string]string{
	"poirot":  "My little grey cells detect",
	"marple":  "It reminds me of a case back in St. Mary Mead:",
	"spade":   "The way I figure it,",
	"marlowe": "I followed the money down a dark alley and found",
	"dupin":   "Ratiocination yields",
	"shadow":  "Lurking in the cluster boundaries,",
	"raven":   "Nevermore shall this pattern go unremarked:",
}

func (templateNarrator) Summarize(_ context.Context, snap Snapshot) (string, error) {
	voice, ok := personaVoice[snap.Persona]
	if !ok {
		voice = "Analysis shows"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s wallet %s carries a %s risk profile (score %.0f) focused on %s.",
		voice, abbreviate(snap.WalletAddress), snap.RiskLevelText, snap.RiskScore, snap.AnalysisFocus)

	if len(snap.Drivers) > 0 {
		fmt.Fprintf(&b, " Key drivers: %s.", strings.Join(snap.Drivers, ", "))
	}
	if snap.TaintHighCount > 0 {
		fmt.Fprintf(&b, " %d high-taint address(es) observed in propagation.", snap.TaintHighCount)
	}
	if len(snap.IntegrationTypes) > 0 {
		fmt.Fprintf(&b, " Integration touchpoints: %s.", strings.Join(snap.IntegrationTypes, ", "))
	}
	if len(snap.LinkedAddresses) > 0 {
		fmt.Fprintf(&b, " %d linked address(es) in scope.", len(snap.LinkedAddresses))
	}

	return b.String(), nil
}

func abbreviate(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
