package solanarpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCallSucceedsOnPrimary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":null}}`))
	}))
	defer srv.Close()

	pool := NewPool([]string{srv.URL}, 5*time.Second, 2, 100)
	env := pool.Call(context.Background(), "getAccountInfo", []interface{}{"addr"})
	if env.Err != nil {
		t.Fatalf("unexpected error: %v", env.Err)
	}
	if env.Meta.Endpoint != srv.URL {
		t.Errorf("expected endpoint %s, got %s", srv.URL, env.Meta.Endpoint)
	}
}

func TestCallFallsBackOnEndpointFailure(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":1}}`))
	}))
	defer good.Close()

	pool := NewPool([]string{bad.URL, good.URL}, 5*time.Second, 0, 10)
	env := pool.Call(context.Background(), "getAccountInfo", []interface{}{"addr"})
	if env.Err != nil {
		t.Fatalf("unexpected error: %v", env.Err)
	}
	if env.Meta.Endpoint != good.URL {
		t.Errorf("expected fallback to %s, got %s", good.URL, env.Meta.Endpoint)
	}

	m := pool.Metrics()
	if m.FallbackCount != 1 {
		t.Errorf("expected 1 fallback, got %d", m.FallbackCount)
	}
}

func TestCallRetriesRateLimitedThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":1}}`))
	}))
	defer srv.Close()

	pool := NewPool([]string{srv.URL}, 5*time.Second, 3, 10)
	env := pool.Call(context.Background(), "getAccountInfo", []interface{}{"addr"})
	if env.Err != nil {
		t.Fatalf("unexpected error: %v", env.Err)
	}
	if attempts < 2 {
		t.Errorf("expected at least 2 attempts, got %d", attempts)
	}
}

func TestCallFailsAfterExhaustingAllEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	pool := NewPool([]string{srv.URL}, 5*time.Second, 0, 10)
	env := pool.Call(context.Background(), "getAccountInfo", []interface{}{"addr"})
	if env.Err == nil {
		t.Fatal("expected error after exhausting endpoints")
	}
}

func TestResultIsNullDistinguishesFromAbsent(t *testing.T) {
	var r response
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`), &r); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !r.resultIsNull() {
		t.Error("expected resultIsNull to report true for literal null")
	}
}
