package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DF-AutoPilot/droneforce-functions/internal/config"
)

// settlementInstruction is the canonical payload signed by the
// validator key and submitted to the ledger endpoint.
type settlementInstruction struct {
	TaskID     string `json:"task_id"`
	Result     bool   `json:"result"`
	ReportHash string `json:"report_hash"`
	Validator  string `json:"validator"`
	IssuedAt   string `json:"issued_at"`
}

type settlementRequest struct {
	Instruction settlementInstruction `json:"instruction"`
	Signature   string                `json:"signature"`
}

type settlementResponse struct {
	TransactionID string `json:"transaction_id"`
	Confirmed     bool   `json:"confirmed"`
}

// signedClient submits ed25519-signed settlement instructions over
// HTTP and only reports success once the ledger confirms inclusion.
type signedClient struct {
	key      ed25519.PrivateKey
	endpoint string
	http     *http.Client
	now      func() time.Time
}

// NewSigned constructs the signed settlement client. The validator key
// is an explicitly injected credential: a missing or malformed key is
// a construction error, never silently replaced.
func NewSigned(cfg config.LedgerConfig) (Client, error) {
	if cfg.ValidatorKey == "" {
		return nil, ErrMissingCredential
	}
	seed, err := hex.DecodeString(cfg.ValidatorKey)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: expected %d-byte hex seed", ErrMissingCredential, ed25519.SeedSize)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: ledger endpoint required in signed mode", ErrSettlementFailed)
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &signedClient{
		key:      ed25519.NewKeyFromSeed(seed),
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: timeout},
		now:      time.Now,
	}, nil
}

func (c *signedClient) Settle(ctx context.Context, taskID string, result bool, reportHash string) (string, error) {
	instruction := settlementInstruction{
		TaskID:     taskID,
		Result:     result,
		ReportHash: reportHash,
		Validator:  hex.EncodeToString(c.key.Public().(ed25519.PublicKey)),
		IssuedAt:   c.now().UTC().Format(time.RFC3339Nano),
	}
	payload, err := json.Marshal(instruction)
	if err != nil {
		return "", fmt.Errorf("%w: marshal instruction: %v", ErrSettlementFailed, err)
	}

	reqBody, err := json.Marshal(settlementRequest{
		Instruction: instruction,
		Signature:   hex.EncodeToString(ed25519.Sign(c.key, payload)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrSettlementFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrSettlementFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: submit: %v", ErrSettlementFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ledger returned status %d", ErrSettlementFailed, resp.StatusCode)
	}

	var out settlementResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrSettlementFailed, err)
	}
	if !out.Confirmed || out.TransactionID == "" {
		return "", fmt.Errorf("%w: ledger did not confirm inclusion", ErrSettlementFailed)
	}
	return out.TransactionID, nil
}
