package vault

import "github.com/google/uuid"

// DefaultNamePrefix is the namespace prefix for generated secret names.
const DefaultNamePrefix = "creditcard-"

// NameAllocator generates unique, non-guessable vault-entry names.
type NameAllocator struct {
	// Prefix is prepended to every generated name.
	Prefix string
}

// NewNameAllocator returns an allocator using the given prefix, or
// DefaultNamePrefix when prefix is empty.
func NewNameAllocator(prefix string) NameAllocator {
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	return NameAllocator{Prefix: prefix}
}

// Allocate returns a new secret name: the prefix followed by a random
// 128-bit suffix. It never fails; exhaustion of the process random source
// panics, which is the intended fatal behavior.
func (a NameAllocator) Allocate() string {
	return a.Prefix + uuid.NewString()
}
