package solanarpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Envelope is what every rpc() call returns: either a result or a
// structured error, plus observability metadata about how it got there.
type Envelope struct {
	Result json.RawMessage
	Err    error
	Meta   CallMeta
}

// CallMeta records per-call retry/fallback bookkeeping.
type CallMeta struct {
	Endpoint string
	Attempts int
}

// PoolMetrics is the provider pool's cumulative observability record,
// matching the fields the spec names explicitly (§4.1).
type PoolMetrics struct {
	AttemptedEndpoints []string
	EndpointUsed       string
	Retries            int
	FallbackCount      int
	FailedEndpoints    []string
	SuccessRate        float64
	TotalCalls         int64
}

// Pool is a load-balanced, retrying JSON-RPC client over an ordered list
// of Solana endpoints. A single round-robin counter decides the starting
// endpoint for each top-level call; within a call, failures rotate
// linearly through the remaining endpoints.
type Pool struct {
	httpClient *http.Client
	endpoints  []string
	retryMax   int
	retryBaseMS int

	mu          sync.Mutex
	rrCounter   int
	totalCalls  int64
	successes   int64
	fallbacks   int64
	failedByEndpoint map[string]int64
}

// NewPool builds a provider pool over the given endpoints (primary first,
// fallbacks after), using timeout as the per-call HTTP deadline.
func NewPool(endpoints []string, timeout time.Duration, retryMax, retryBaseMS int) *Pool {
	return &Pool{
		httpClient:       &http.Client{Timeout: timeout},
		endpoints:        endpoints,
		retryMax:         retryMax,
		retryBaseMS:      retryBaseMS,
		failedByEndpoint: make(map[string]int64),
	}
}

// nextStart returns the round-robin starting index for this call and
// advances the counter, under the pool's single O(1) lock.
func (p *Pool) nextStart() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := p.rrCounter % len(p.endpoints)
	p.rrCounter++
	return start
}

// Call executes method with params, rotating across endpoints on
// transport error, HTTP 429, or timeout, with exponential backoff for
// rate-limit errors and linear backoff for network errors. It never
// mutates caller state on failure.
func (p *Pool) Call(ctx context.Context, method string, params []interface{}) Envelope {
	p.mu.Lock()
	p.totalCalls++
	p.mu.Unlock()

	start := p.nextStart()
	n := len(p.endpoints)

	var attempted []string
	var lastErr error
	attempts := 0

	for i := 0; i < n; i++ {
		endpoint := p.endpoints[(start+i)%n]
		attempted = append(attempted, endpoint)

		for retry := 0; retry <= p.retryMax; retry++ {
			attempts++
			result, callErr, retryable, rateLimited := p.doCall(ctx, endpoint, method, params)
			if callErr == nil {
				p.mu.Lock()
				p.successes++
				p.mu.Unlock()
				if i > 0 {
					p.mu.Lock()
					p.fallbacks++
					p.mu.Unlock()
				}
				return Envelope{
					Result: result,
					Meta:   CallMeta{Endpoint: endpoint, Attempts: attempts},
				}
			}

			lastErr = callErr
			if !retryable {
				break
			}
			if retry == p.retryMax {
				break
			}

			var backoff time.Duration
			if rateLimited {
				backoff = time.Duration(1000*pow2(retry)) * time.Millisecond
			} else {
				backoff = time.Duration(500*(retry+1)) * time.Millisecond
			}
			log.Debug().Str("endpoint", endpoint).Str("method", method).
				Int("retry", retry).Dur("backoff", backoff).Msg("rpc retry")

			select {
			case <-ctx.Done():
				return Envelope{Err: ctx.Err(), Meta: CallMeta{Endpoint: endpoint, Attempts: attempts}}
			case <-time.After(backoff):
			}
		}

		p.mu.Lock()
		p.failedByEndpoint[endpoint]++
		p.mu.Unlock()
	}

	return Envelope{
		Err:  fmt.Errorf("rpc %s exhausted all endpoints: %w", method, lastErr),
		Meta: CallMeta{Endpoint: "", Attempts: attempts},
	}
}

// doCall issues one HTTP round trip. retryable reports whether the error
// is worth rotating/backing off on; rateLimited further distinguishes the
// exponential-backoff case from the linear one.
func (p *Pool) doCall(ctx context.Context, endpoint, method string, params []interface{}) (json.RawMessage, error, bool, bool) {
	body, err := json.Marshal(request{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, err, false, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err, false, false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err, true, false
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err, true, false
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)"), true, true
	}
	if resp.StatusCode == http.StatusRequestTimeout {
		return nil, fmt.Errorf("request timeout (408)"), true, false
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("non-retryable status %d: %s", resp.StatusCode, string(respBody)), false, false
	}

	var env response
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, err, false, false
	}
	if env.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", env.Error.Code, env.Error.Message), false, false
	}
	return env.Result, nil, false, false
}

// Metrics snapshots the pool's cumulative observability record.
func (p *Pool) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	var failed []string
	for ep, count := range p.failedByEndpoint {
		if count > 0 {
			failed = append(failed, ep)
		}
	}

	successRate := 0.0
	if p.totalCalls > 0 {
		successRate = float64(p.successes) / float64(p.totalCalls)
	}

	return PoolMetrics{
		AttemptedEndpoints: append([]string(nil), p.endpoints...),
		EndpointUsed:       "provider_pool",
		Retries:            int(p.totalCalls - p.successes),
		FallbackCount:      int(p.fallbacks),
		FailedEndpoints:    failed,
		SuccessRate:        successRate,
		TotalCalls:         p.totalCalls,
	}
}

func pow2(n int) int64 {
	result := int64(1)
	for i := 0; i < n; i++ {
		result *= 2
	}
	return result
}
