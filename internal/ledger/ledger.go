// Package ledger abstracts settling a task's verification outcome on
// the external ledger. Two interchangeable implementations exist: a
// mock that fabricates transaction ids without I/O, and a signed
// client that submits an ed25519-signed settlement instruction.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/DF-AutoPilot/droneforce-functions/internal/config"
)

var (
	// ErrMissingCredential is returned when the signed client is
	// constructed without a validator key. No throwaway key is ever
	// generated in its place.
	ErrMissingCredential = errors.New("ledger: validator credential missing")

	// ErrSettlementFailed wraps submission or confirmation failures.
	// The task is left untouched when settlement fails, so the caller
	// may safely retry.
	ErrSettlementFailed = errors.New("ledger: settlement failed")
)

// Client settles a task's verification outcome and returns the
// ledger's transaction reference. Implementations must not return a
// transaction id unless the ledger durably accepted the settlement.
type Client interface {
	Settle(ctx context.Context, taskID string, result bool, reportHash string) (string, error)
}

// NewFromConfig selects the client implementation by cfg.Mode.
func NewFromConfig(cfg config.LedgerConfig) (Client, error) {
	switch cfg.Mode {
	case "", "mock":
		return NewMock(), nil
	case "signed":
		return NewSigned(cfg)
	default:
		return nil, fmt.Errorf("unknown ledger mode %q", cfg.Mode)
	}
}
