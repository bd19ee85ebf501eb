package detective

import (
	"testing"

	"github.com/ghosthunter/detective/internal/pipeline"
	"github.com/ghosthunter/detective/pkg/models"
)

func TestLinkedAddressesExcludesProgramLikeCounterparties(t *testing.T) {
	snap := &pipeline.Snapshot{
		WalletAddress: "wallet",
		Edges: []models.Edge{
			{From: "wallet", To: "walletCounterparty"},
			{From: "wallet", To: "tokenProgram"},
		},
		CounterpartyIdentities: map[string]models.AccountIdentity{
			"walletCounterparty": {Address: "walletCounterparty", Exists: true, Category: models.CategoryIndividual},
			"tokenProgram":        {Address: "tokenProgram", Exists: true, Executable: true, Category: models.CategoryProgram},
		},
	}

	linked := linkedAddresses(snap, 10)
	if len(linked) != 1 || linked[0] != "walletCounterparty" {
		t.Errorf("expected only walletCounterparty in linked_addresses, got %v", linked)
	}

	programs := programAddresses(snap, 10)
	if len(programs) != 1 || programs[0] != "tokenProgram" {
		t.Errorf("expected only tokenProgram in program_addresses, got %v", programs)
	}
}

func TestLinkedAddressesTreatsUnresolvedIdentityAsWalletLike(t *testing.T) {
	snap := &pipeline.Snapshot{
		WalletAddress: "wallet",
		Edges: []models.Edge{
			{From: "wallet", To: "unresolved"},
		},
		CounterpartyIdentities: map[string]models.AccountIdentity{},
	}

	linked := linkedAddresses(snap, 10)
	if len(linked) != 1 || linked[0] != "unresolved" {
		t.Errorf("expected an unresolved counterparty to default to linked_addresses, got %v", linked)
	}
	if programs := programAddresses(snap, 10); len(programs) != 0 {
		t.Errorf("expected no program addresses for an unresolved identity, got %v", programs)
	}
}
