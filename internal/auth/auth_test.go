package auth

import (
	"context"
	"errors"
	"testing"

	"lmsrMarket/internal/model"
)

func TestOpenAllowsEveryone(t *testing.T) {
	if err := (Open{}).RequireAuth(context.Background(), "anyone"); err != nil {
		t.Fatalf("open authorizer rejected: %v", err)
	}
}

func TestHMACRequireAuth(t *testing.T) {
	a := NewHMAC(map[string]string{"alice": "secret-a"})
	ctx := context.Background()

	if err := a.RequireAuth(ctx, "alice"); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("missing proof: got %v, want ErrUnauthorized", err)
	}

	if err := a.RequireAuth(ctx, "mallory"); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("unknown principal: got %v, want ErrUnauthorized", err)
	}

	bad := WithProof(ctx, "alice", "wrong")
	if err := a.RequireAuth(bad, "alice"); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("wrong proof: got %v, want ErrUnauthorized", err)
	}

	// A proof signed under another principal's identity does not transfer.
	stolen := WithProof(ctx, "alice", Sign("secret-a", "bob"))
	if err := a.RequireAuth(stolen, "alice"); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("mismatched proof: got %v, want ErrUnauthorized", err)
	}

	good := WithProof(ctx, "alice", Sign("secret-a", "alice"))
	if err := a.RequireAuth(good, "alice"); err != nil {
		t.Fatalf("valid proof rejected: %v", err)
	}
}

func TestWithProofDoesNotMutateParent(t *testing.T) {
	a := NewHMAC(map[string]string{"alice": "secret-a", "bob": "secret-b"})
	ctx := context.Background()

	parent := WithProof(ctx, "alice", Sign("secret-a", "alice"))
	child := WithProof(parent, "bob", Sign("secret-b", "bob"))

	if err := a.RequireAuth(child, "alice"); err != nil {
		t.Fatalf("child lost parent proof: %v", err)
	}
	if err := a.RequireAuth(child, "bob"); err != nil {
		t.Fatalf("child proof missing: %v", err)
	}
	if err := a.RequireAuth(parent, "bob"); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("parent gained child proof: %v", err)
	}
}
