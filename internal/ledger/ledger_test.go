package ledger

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DF-AutoPilot/droneforce-functions/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSettle(t *testing.T) {
	ctx := context.Background()
	c := NewMock()

	t.Run("unique transaction ids", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			tx, err := c.Settle(ctx, "task-1", true, "hash")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(tx, "mock-tx-"))
			assert.False(t, seen[tx], "transaction id %s repeated", tx)
			seen[tx] = true
		}
	})

	t.Run("empty task id rejected", func(t *testing.T) {
		_, err := c.Settle(ctx, "", true, "hash")
		assert.ErrorIs(t, err, ErrSettlementFailed)
	})
}

func TestNewSigned(t *testing.T) {
	t.Run("missing credential", func(t *testing.T) {
		_, err := NewSigned(config.LedgerConfig{Mode: "signed", Endpoint: "http://ledger"})
		assert.ErrorIs(t, err, ErrMissingCredential)
	})

	t.Run("malformed credential", func(t *testing.T) {
		_, err := NewSigned(config.LedgerConfig{ValidatorKey: "zz", Endpoint: "http://ledger"})
		assert.ErrorIs(t, err, ErrMissingCredential)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		seed := strings.Repeat("ab", ed25519.SeedSize)
		_, err := NewSigned(config.LedgerConfig{ValidatorKey: seed})
		assert.Error(t, err)
	})
}

func TestSignedSettle(t *testing.T) {
	ctx := context.Background()
	seedHex := strings.Repeat("ab", ed25519.SeedSize)

	newClient := func(t *testing.T, endpoint string) Client {
		c, err := NewSigned(config.LedgerConfig{
			ValidatorKey: seedHex,
			Endpoint:     endpoint,
			TimeoutSec:   5,
		})
		require.NoError(t, err)
		return c
	}

	t.Run("confirmed settlement returns tx id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req settlementRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			assert.Equal(t, "task-1", req.Instruction.TaskID)
			assert.True(t, req.Instruction.Result)
			assert.Equal(t, "report-hash", req.Instruction.ReportHash)

			// Verify the signature covers the canonical instruction payload.
			payload, err := json.Marshal(req.Instruction)
			require.NoError(t, err)
			sig, err := hex.DecodeString(req.Signature)
			require.NoError(t, err)
			pub, err := hex.DecodeString(req.Instruction.Validator)
			require.NoError(t, err)
			assert.True(t, ed25519.Verify(ed25519.PublicKey(pub), payload, sig))

			json.NewEncoder(w).Encode(settlementResponse{TransactionID: "ledger-tx-1", Confirmed: true})
		}))
		defer srv.Close()

		tx, err := newClient(t, srv.URL).Settle(ctx, "task-1", true, "report-hash")

		require.NoError(t, err)
		assert.Equal(t, "ledger-tx-1", tx)
	})

	t.Run("unconfirmed response yields no tx id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(settlementResponse{TransactionID: "tx", Confirmed: false})
		}))
		defer srv.Close()

		tx, err := newClient(t, srv.URL).Settle(ctx, "task-1", true, "hash")

		assert.ErrorIs(t, err, ErrSettlementFailed)
		assert.Empty(t, tx)
	})

	t.Run("ledger error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newClient(t, srv.URL).Settle(ctx, "task-1", false, "hash")

		assert.ErrorIs(t, err, ErrSettlementFailed)
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Run("defaults to mock", func(t *testing.T) {
		c, err := NewFromConfig(config.LedgerConfig{})
		require.NoError(t, err)
		_, ok := c.(*mockClient)
		assert.True(t, ok)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewFromConfig(config.LedgerConfig{Mode: "testnet"})
		assert.Error(t, err)
	})
}
