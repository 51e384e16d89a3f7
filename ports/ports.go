// Package ports defines the infrastructure contracts the core depends on.
// Implementations live in adapters/.
package ports

import "time"

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates item ids.
type IDGenerator interface {
	New() string
}

// Hasher hashes and verifies secrets such as passwords.
type Hasher interface {
	// Hash generates a hash from a plaintext value.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// Metrics receives application counters. A nil Metrics is never passed;
// use a no-op implementation instead.
type Metrics interface {
	// ItemWrite counts a committed write of one item.
	ItemWrite(list, operation string)

	// AuthAttempt counts a sign-in attempt by result.
	AuthAttempt(result string)

	// SessionRejected counts a session token that failed to decode.
	SessionRejected(reason string)
}
