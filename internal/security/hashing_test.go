package security

import (
	"errors"
	"strings"
	"testing"
)

func TestHasher_HashAndMatch(t *testing.T) {
	h := NewHasher(4)
	hash, err := h.Hash("Secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "Secret123" {
		t.Fatalf("Hash returned %q", hash)
	}
	if !h.Matches("Secret123", hash) {
		t.Fatal("Matches should accept the original password")
	}
}

func TestHasher_RejectsWrongPassword(t *testing.T) {
	h := NewHasher(4)
	hash, _ := h.Hash("Secret123")
	if h.Matches("secret123", hash) {
		t.Fatal("Matches should reject a different password")
	}
}

func TestHasher_RejectsMalformedDigest(t *testing.T) {
	h := NewHasher(4)
	if h.Matches("x", "") {
		t.Error("empty digest matched")
	}
	if h.Matches("x", "not-a-bcrypt-hash") {
		t.Error("malformed digest matched")
	}
}

func TestHasher_SaltsEachHash(t *testing.T) {
	h := NewHasher(4)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
}

func TestHasher_Cost(t *testing.T) {
	if h := NewHasher(10); h.Cost != 10 {
		t.Errorf("Cost = %d, want 10", h.Cost)
	}
	if h := NewHasher(0); h.Cost != 10 {
		t.Errorf("zero cost = %d, want default 10", h.Cost)
	}
	if h := NewHasher(2); h.Cost != 4 {
		t.Errorf("cost 2 = %d, want clamped to 4", h.Cost)
	}
	if h := NewHasher(40); h.Cost != 31 {
		t.Errorf("cost 40 = %d, want clamped to 31", h.Cost)
	}
}

func TestHasher_RejectsPasswordOverBcryptLimit(t *testing.T) {
	h := NewHasher(4)
	if _, err := h.Hash(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("72-byte password: %v", err)
	}
	if _, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("got = %v, want ErrPasswordTooLong", err)
	}
	// multi-byte runes count by byte
	if _, err := h.Hash(strings.Repeat("é", 37)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("74-byte password: got = %v, want ErrPasswordTooLong", err)
	}
}
