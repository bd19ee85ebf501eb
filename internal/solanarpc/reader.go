package solanarpc

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ghosthunter/detective/internal/stageerr"
	"github.com/ghosthunter/detective/pkg/models"
)

// BatchIdentities resolves get_account_identity for every address in
// addresses, deduplicating repeats and running up to batchConcurrency
// lookups concurrently via a bounded errgroup — the same fan-out shape as
// BatchedTransactions. An address whose identity lookup fails is simply
// omitted from the result (degraded, not a hard error) unless every
// lookup fails.
func (r *Reader) BatchIdentities(ctx context.Context, addresses []string) (map[string]models.AccountIdentity, error) {
	unique := make([]string, 0, len(addresses))
	seen := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		unique = append(unique, a)
	}
	if len(unique) == 0 {
		return map[string]models.AccountIdentity{}, nil
	}

	results := make([]models.AccountIdentity, len(unique))
	ok := make([]bool, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	if r.batchConcurrency > 0 {
		g.SetLimit(r.batchConcurrency)
	}

	for idx, addr := range unique {
		idx, addr := idx, addr
		g.Go(func() error {
			identity, err := r.GetAccountIdentity(gctx, addr)
			if err != nil {
				return nil // degraded: this address's identity stays unresolved
			}
			results[idx] = identity
			ok[idx] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stageerr.New(stageerr.AnalysisStageError, "chain_reader", err)
	}

	out := make(map[string]models.AccountIdentity, len(unique))
	resolved := false
	for i, addr := range unique {
		if ok[i] {
			out[addr] = results[i]
			resolved = true
		}
	}
	if !resolved && len(unique) > 0 {
		return nil, stageerr.New(stageerr.DegradedData, "chain_reader", fmt.Errorf("identity lookup failed for all %d counterparties", len(unique)))
	}
	return out, nil
}

// Reader is the chain reader (C2): typed wrappers over the three upstream
// RPC methods this module depends on, backed by a Pool.
type Reader struct {
	pool              *Pool
	commitment        Commitment
	batchSize         int
	batchConcurrency  int
}

// NewReader builds a Reader over pool, using commitment for every call and
// chunking batched transaction fetches to batchSize with up to
// batchConcurrency concurrent chunks.
func NewReader(pool *Pool, commitment Commitment, batchSize, batchConcurrency int) *Reader {
	return &Reader{
		pool:             pool,
		commitment:       commitment,
		batchSize:        batchSize,
		batchConcurrency: batchConcurrency,
	}
}

type accountInfoResult struct {
	Value *accountInfoValue `json:"value"`
}

type accountInfoValue struct {
	Executable bool   `json:"executable"`
	Owner      string `json:"owner"`
}

// GetAccountIdentity fetches account existence, executability, and owning
// program for address. A JSON-RPC result of null means the account does
// not exist on-chain; this is not an error.
func (r *Reader) GetAccountIdentity(ctx context.Context, address string) (models.AccountIdentity, error) {
	if !models.ValidAddress(address) {
		return models.AccountIdentity{}, stageerr.New(stageerr.InvalidAddress, "chain_reader", fmt.Errorf("invalid address: %s", address))
	}

	env := r.pool.Call(ctx, "getAccountInfo", []interface{}{
		address,
		map[string]interface{}{"encoding": "base64", "commitment": string(r.commitment)},
	})
	if env.Err != nil {
		return models.AccountIdentity{}, stageerr.New(stageerr.RpcTransport, "chain_reader", env.Err)
	}

	var raw accountInfoResult
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return models.AccountIdentity{Address: address, Exists: false, Category: models.CategoryUnknown}, nil
	}
	if err := json.Unmarshal(env.Result, &raw); err != nil {
		return models.AccountIdentity{}, stageerr.New(stageerr.ParseMalformed, "chain_reader", err)
	}
	if raw.Value == nil {
		return models.AccountIdentity{Address: address, Exists: false, Category: models.CategoryUnknown}, nil
	}

	category := models.CategoryIndividual
	if raw.Value.Executable {
		category = models.CategoryProgram
	}

	return models.AccountIdentity{
		Address:      address,
		Exists:       true,
		Category:     category,
		Executable:   raw.Value.Executable,
		OwnerProgram: raw.Value.Owner,
	}, nil
}

type signatureEntry struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
	BlockTime *int64 `json:"blockTime"`
	Err       interface{} `json:"err"`
}

// SignaturesPaginated fetches up to limit (capped at 100) signatures for
// address older than before (newest-first continuation cursor; empty
// string starts from the tip).
func (r *Reader) SignaturesPaginated(ctx context.Context, address string, limit int, before string) ([]models.SignatureRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	params := map[string]interface{}{
		"limit":      limit,
		"commitment": string(r.commitment),
	}
	if before != "" {
		params["before"] = before
	}

	env := r.pool.Call(ctx, "getSignaturesForAddress", []interface{}{address, params})
	if env.Err != nil {
		return nil, stageerr.New(stageerr.RpcTransport, "chain_reader", env.Err)
	}

	var entries []signatureEntry
	if err := json.Unmarshal(env.Result, &entries); err != nil {
		return nil, stageerr.New(stageerr.ParseMalformed, "chain_reader", err)
	}

	records := make([]models.SignatureRecord, 0, len(entries))
	for _, e := range entries {
		var blockTime int64
		quality := 0.0
		if e.BlockTime != nil {
			blockTime = *e.BlockTime
			quality = timestampQuality(blockTime)
		}
		records = append(records, models.SignatureRecord{
			Signature:        e.Signature,
			Slot:             e.Slot,
			BlockTime:        blockTime,
			TimestampQuality: quality,
			Err:              e.Err != nil,
		})
	}
	return records, nil
}

// timestampQuality bands a Unix timestamp: 1.0 within the plausible
// 2020-2030 mainnet era, 0.5 if positive but outside that band, 0.0 if
// non-positive (missing/zero).
func timestampQuality(blockTime int64) float64 {
	const y2020 = 1577836800
	const y2030 = 1893456000
	switch {
	case blockTime >= y2020 && blockTime <= y2030:
		return 1.0
	case blockTime > 0:
		return 0.5
	default:
		return 0.0
	}
}

type txResult struct {
	Slot        uint64   `json:"slot"`
	BlockTime   *int64   `json:"blockTime"`
	Transaction struct {
		Signatures []string `json:"signatures"`
		Message    struct {
			AccountKeys []json.RawMessage `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
	Meta struct {
		Fee          uint64  `json:"fee"`
		PreBalances  []int64 `json:"preBalances"`
		PostBalances []int64 `json:"postBalances"`
		Err          interface{} `json:"err"`
	} `json:"meta"`
}

type parsedAccountKey struct {
	Pubkey string `json:"pubkey"`
}

// BatchedTransactions fetches full transaction details for signatures in
// chunks of the reader's batch size, running up to batchConcurrency
// chunks concurrently via an errgroup. Results preserve input order; a
// transaction that fails to fetch is dropped without aborting sibling
// chunks, and an error is returned only when every fetch fails.
func (r *Reader) BatchedTransactions(ctx context.Context, signatures []string) ([]models.RawTransaction, error) {
	if len(signatures) == 0 {
		return nil, nil
	}

	chunkSize := r.batchSize
	if chunkSize <= 0 {
		chunkSize = 20
	}

	var chunks [][]string
	for i := 0; i < len(signatures); i += chunkSize {
		end := i + chunkSize
		if end > len(signatures) {
			end = len(signatures)
		}
		chunks = append(chunks, signatures[i:end])
	}

	results := make([][]models.RawTransaction, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	if r.batchConcurrency > 0 {
		g.SetLimit(r.batchConcurrency)
	}

	for idx, chunk := range chunks {
		idx, chunk := idx, chunk
		g.Go(func() error {
			chunkResults := make([]models.RawTransaction, 0, len(chunk))
			for _, sig := range chunk {
				tx, err := r.fetchTransaction(gctx, sig)
				if err != nil {
					continue
				}
				chunkResults = append(chunkResults, tx)
			}
			results[idx] = chunkResults
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stageerr.New(stageerr.AnalysisStageError, "chain_reader", err)
	}

	var out []models.RawTransaction
	for _, chunkResults := range results {
		out = append(out, chunkResults...)
	}
	if len(out) == 0 {
		return nil, stageerr.New(stageerr.DegradedData, "chain_reader", fmt.Errorf("all %d transaction fetches failed", len(signatures)))
	}
	return out, nil
}

func (r *Reader) fetchTransaction(ctx context.Context, signature string) (models.RawTransaction, error) {
	env := r.pool.Call(ctx, "getTransaction", []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "json",
			"commitment":                     string(r.commitment),
			"maxSupportedTransactionVersion": 0,
		},
	})
	if env.Err != nil {
		return models.RawTransaction{}, stageerr.New(stageerr.RpcTransport, "chain_reader", env.Err)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return models.RawTransaction{}, stageerr.New(stageerr.DegradedData, "chain_reader", fmt.Errorf("transaction %s not found", signature))
	}

	var tx txResult
	if err := json.Unmarshal(env.Result, &tx); err != nil {
		return models.RawTransaction{}, stageerr.New(stageerr.ParseMalformed, "chain_reader", err)
	}

	accountKeys := make([]string, 0, len(tx.Transaction.Message.AccountKeys))
	for _, raw := range tx.Transaction.Message.AccountKeys {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			accountKeys = append(accountKeys, s)
			continue
		}
		var parsed parsedAccountKey
		if err := json.Unmarshal(raw, &parsed); err == nil {
			accountKeys = append(accountKeys, parsed.Pubkey)
		}
	}

	var blockTime int64
	if tx.BlockTime != nil {
		blockTime = *tx.BlockTime
	}

	signature0 := signature
	if len(tx.Transaction.Signatures) > 0 {
		signature0 = tx.Transaction.Signatures[0]
	}

	return models.RawTransaction{
		Signature:    signature0,
		Slot:         tx.Slot,
		BlockTime:    blockTime,
		AccountKeys:  accountKeys,
		PreBalances:  tx.Meta.PreBalances,
		PostBalances: tx.Meta.PostBalances,
		Fee:          tx.Meta.Fee,
	}, nil
}
