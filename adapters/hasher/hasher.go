// Package hasher provides password hashing implementations.
package hasher

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/contentgate/ports"
)

// Bcrypt hashes with bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. Out-of-range costs fall back to the
// library default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Cost returns the configured work factor.
func (h *Bcrypt) Cost() int {
	return h.cost
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

func (h *Bcrypt) Compare(hash []byte, plaintext string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}

var _ ports.Hasher = (*Bcrypt)(nil)

// Plain stores secrets with a fixed prefix and no hashing. Tests only.
type Plain struct{}

const plainPrefix = "plain:"

func (Plain) Hash(plaintext string) ([]byte, error) {
	return []byte(plainPrefix + plaintext), nil
}

func (Plain) Compare(hash []byte, plaintext string) bool {
	return string(hash) == plainPrefix+plaintext
}

var _ ports.Hasher = Plain{}
