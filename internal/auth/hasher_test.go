package auth

import (
	"strings"
	"testing"
)

func TestHashRoundTrip(t *testing.T) {
	hasher := NewBcryptHasher()

	hash, err := hasher.Hash("Passw0rd")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "Passw0rd" {
		t.Fatal("hash must not equal the plaintext password")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}

	if !hasher.Verify("Passw0rd", hash) {
		t.Fatal("expected registered password to verify")
	}
	if hasher.Verify("Passw0rd2", hash) {
		t.Fatal("expected different password to fail verification")
	}
	if hasher.Verify("", hash) {
		t.Fatal("expected empty password to fail verification")
	}
}

func TestHashIsSalted(t *testing.T) {
	hasher := NewBcryptHasher()

	first, err := hasher.Hash("Passw0rd")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := hasher.Hash("Passw0rd")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}
