// Package auth is the injected capability check for mutating market
// operations. The engine asks the Authorizer whether the acting principal
// consented to the call; how consent is proven is the implementation's
// concern, keeping identity mechanics out of the pricing and state logic.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"lmsrMarket/internal/model"
)

// Authorizer verifies that the principal consented to the current
// operation. A failure aborts the whole operation.
type Authorizer interface {
	RequireAuth(ctx context.Context, principal string) error
}

type proofKey struct{}

// WithProof attaches a consent proof for a principal to the context. The
// caller-facing layer collects proofs; the engine never sees them directly.
func WithProof(ctx context.Context, principal, proof string) context.Context {
	proofs, _ := ctx.Value(proofKey{}).(map[string]string)
	next := make(map[string]string, len(proofs)+1)
	for k, v := range proofs {
		next[k] = v
	}
	next[principal] = proof
	return context.WithValue(ctx, proofKey{}, next)
}

func proofFrom(ctx context.Context, principal string) (string, bool) {
	proofs, _ := ctx.Value(proofKey{}).(map[string]string)
	proof, ok := proofs[principal]
	return proof, ok
}

// Open authorizes every principal. For local file-backed runs and tests.
type Open struct{}

func (Open) RequireAuth(context.Context, string) error { return nil }

// HMAC authorizes a principal when the context carries a valid proof:
// the hex HMAC-SHA256 of the principal under that principal's secret.
type HMAC struct {
	secrets map[string]string
}

func NewHMAC(secrets map[string]string) *HMAC {
	return &HMAC{secrets: secrets}
}

// Sign produces the proof for a principal. Used by the CLI when acting
// on a principal's behalf; a real deployment would keep the secret with
// the principal.
func Sign(secret, principal string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(principal))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *HMAC) RequireAuth(ctx context.Context, principal string) error {
	secret, ok := a.secrets[principal]
	if !ok {
		return model.ErrUnauthorized
	}
	proof, ok := proofFrom(ctx, principal)
	if !ok {
		return model.ErrUnauthorized
	}

	want := Sign(secret, principal)
	if !hmac.Equal([]byte(proof), []byte(want)) {
		return model.ErrUnauthorized
	}
	return nil
}
