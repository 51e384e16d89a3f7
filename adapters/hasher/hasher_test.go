package hasher_test

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/contentgate/adapters/hasher"
)

func TestBcrypt_Cost(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{bcrypt.MinCost, bcrypt.MinCost},
		{12, 12},
		{1, bcrypt.DefaultCost},
		{100, bcrypt.DefaultCost},
	}
	for _, tt := range tests {
		if got := hasher.NewBcrypt(tt.in).Cost(); got != tt.want {
			t.Errorf("NewBcrypt(%d).Cost() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBcrypt_HashCompare(t *testing.T) {
	h := hasher.NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if string(hash) == "correct horse" {
		t.Fatal("hash must not equal the plaintext")
	}
	if hash[0] != '$' {
		t.Errorf("expected bcrypt format, got %q", hash)
	}

	if !h.Compare(hash, "correct horse") {
		t.Error("Compare should accept the original secret")
	}
	if h.Compare(hash, "wrong") {
		t.Error("Compare should reject a different secret")
	}
	if h.Compare([]byte("not a hash"), "correct horse") {
		t.Error("Compare should reject a malformed hash")
	}

	again, _ := h.Hash("correct horse")
	if string(again) == string(hash) {
		t.Error("hashes of the same secret should be salted differently")
	}
}

func TestPlain(t *testing.T) {
	h := hasher.Plain{}
	hash, _ := h.Hash("p")
	if string(hash) == "p" {
		t.Error("Plain hash should not equal the plaintext")
	}
	if !h.Compare(hash, "p") || h.Compare(hash, "q") {
		t.Error("Plain Compare mismatch")
	}
}
