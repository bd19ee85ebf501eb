package pipeline

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ghosthunter/detective/internal/analysiscache"
	"github.com/ghosthunter/detective/internal/config"
	"github.com/ghosthunter/detective/internal/solanarpc"
	"github.com/ghosthunter/detective/pkg/models"

	"context"
)

const testWallet = "11111111111111111111111111111111111111111"
const counterparty1 = "22222222222222222222222222222222222222222"

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	ID     int           `json:"id"`
}

// fakeRPCServer serves a single wallet with one signature and one
// transaction moving value from counterparty1 into testWallet.
func fakeRPCServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		switch req.Method {
		case "getAccountInfo":
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":{"executable":false,"owner":"11111111111111111111111111111111111111111"}}}`))
		case "getSignaturesForAddress":
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[{"signature":"sig1","slot":100,"blockTime":1700000000,"err":null}]}`))
		case "getTransaction":
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{
				"slot":100,
				"blockTime":1700000000,
				"transaction":{"signatures":["sig1"],"message":{"accountKeys":["` + testWallet + `","` + counterparty1 + `"]}},
				"meta":{"fee":5000,"preBalances":[1000000000,0],"postBalances":[1100000000,0],"err":null}
			}}`))
		default:
			t.Fatalf("unexpected method: %s", req.Method)
		}
	}))
}

func newTestPipeline(t *testing.T) *Pipeline {
	srv := fakeRPCServer(t)
	t.Cleanup(srv.Close)

	pool := solanarpc.NewPool([]string{srv.URL}, 5*time.Second, 1, 10)
	reader := solanarpc.NewReader(pool, solanarpc.CommitmentConfirmed, 20, 4)
	cache := analysiscache.New(5*time.Minute, 5*time.Second)
	known := config.NewStaticKnownAddresses(&config.Config{})

	return New(reader, pool, cache, known, config.EmptyBlacklist{}, false)
}

func TestSnapshotBuildsEveryStageWithoutError(t *testing.T) {
	p := newTestPipeline(t)
	snap, err := p.Snapshot(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Identity.Exists {
		t.Error("expected account to exist")
	}
	if len(snap.ParsedTxs) != 1 {
		t.Fatalf("expected 1 parsed transaction, got %d", len(snap.ParsedTxs))
	}
	if snap.GraphStats.NodeCount == 0 {
		t.Error("expected a non-empty graph")
	}
	if snap.Risk.FinalScore < 0 || snap.Risk.FinalScore > 100 {
		t.Errorf("expected final_score in [0,100], got %v", snap.Risk.FinalScore)
	}
	if _, ok := snap.CounterpartyIdentities[counterparty1]; !ok {
		t.Errorf("expected counterparty1 identity to be resolved, got %v", snap.CounterpartyIdentities)
	}
	if snap.RPCMetrics.TotalCalls == 0 {
		t.Error("expected non-zero RPCMetrics.TotalCalls to be reused in both the risk inputs and the snapshot")
	}
}

func TestSnapshotRejectsInvalidAddress(t *testing.T) {
	p := newTestPipeline(t)
	_, err := p.Snapshot(context.Background(), "not-a-valid-address")
	if err == nil {
		t.Fatal("expected an error for an invalid address")
	}
}

func TestSnapshotIsCachedAcrossRepeatCalls(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	first, err := p.Snapshot(ctx, testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Snapshot(ctx, testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.ComputedAt.Equal(second.ComputedAt) {
		t.Error("expected the second call within TTL to reuse the cached snapshot")
	}
}

func TestTopCounterpartyPicksHighestValueEdge(t *testing.T) {
	edges := []models.Edge{
		{From: testWallet, To: "a", ValueSOL: 1},
		{From: testWallet, To: "b", ValueSOL: 10},
	}
	if got := topCounterparty(edges, testWallet); got != "b" {
		t.Errorf("expected b, got %s", got)
	}
}

func TestTopInboundCounterpartiesOrdersByValueDescending(t *testing.T) {
	edges := []models.Edge{
		{From: "a", To: testWallet, ValueSOL: 5},
		{From: "b", To: testWallet, ValueSOL: 20},
		{From: "c", To: testWallet, ValueSOL: 1},
	}
	got := topInboundCounterparties(edges, testWallet, 2)
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("expected [b a], got %v", got)
	}
}

func TestSnapshotFlagsBlacklistedCounterpartyAsTaintDriver(t *testing.T) {
	srv := fakeRPCServer(t)
	t.Cleanup(srv.Close)

	pool := solanarpc.NewPool([]string{srv.URL}, 5*time.Second, 1, 10)
	reader := solanarpc.NewReader(pool, solanarpc.CommitmentConfirmed, 20, 4)
	cache := analysiscache.New(5*time.Minute, 5*time.Second)
	known := config.NewStaticKnownAddresses(&config.Config{})
	blacklist := config.NewStaticBlacklist(&config.Config{Blacklist: []string{counterparty1}})

	p := New(reader, pool, cache, known, blacklist, false)
	snap, err := p.Snapshot(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, c := range snap.Risk.Components {
		if c.Name == "taint_exposure" {
			for _, d := range c.Drivers {
				if d == "public blacklist hit" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("expected the blacklisted counterparty to surface as a public blacklist hit driver")
	}
}

func TestInvestigationContextDetectsCEXInteraction(t *testing.T) {
	ctx := investigationContext(nil, []models.IntegrationEvent{{Type: "cex"}}, false)
	if !ctx.HasCEXInteractions {
		t.Error("expected HasCEXInteractions=true")
	}
}

func TestInvestigationContextThreadsRegressionFlag(t *testing.T) {
	ctx := investigationContext(nil, nil, true)
	if !ctx.EnableRegressionValidation {
		t.Error("expected EnableRegressionValidation=true to thread through")
	}
}
