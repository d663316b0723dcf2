package solana

import (
	"crypto/ed25519"
	"strings"

	"github.com/code-payments/code-vault-server/pkg/cache"
)

type derivedAddress struct {
	address ed25519.PublicKey
	bump    uint8
}

// NewCachingDeriveFunc memoizes successful derivations of derive, keeping at
// most maxEntries results.
func NewCachingDeriveFunc(derive DeriveFunc, maxEntries int) DeriveFunc {
	derived := cache.New(maxEntries)

	return func(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
		key := deriveCacheKey(program, seeds)

		if cached, ok := derived.Retrieve(key); ok {
			typed := cached.(*derivedAddress)
			return copyKey(typed.address), typed.bump, nil
		}

		address, bump, err := derive(program, seeds...)
		if err != nil {
			return nil, 0, err
		}

		// Concurrent derivations of the same key are equivalent
		_ = derived.Insert(key, &derivedAddress{address: copyKey(address), bump: bump}, 1)

		return address, bump, nil
	}
}

// deriveCacheKey length prefixes every seed so distinct seed sets never
// share a key.
func deriveCacheKey(program ed25519.PublicKey, seeds [][]byte) string {
	var sb strings.Builder
	sb.Write(program)
	for _, seed := range seeds {
		sb.WriteByte(byte(len(seed)))
		sb.Write(seed)
	}
	return sb.String()
}

func copyKey(key ed25519.PublicKey) ed25519.PublicKey {
	copied := make(ed25519.PublicKey, len(key))
	copy(copied, key)
	return copied
}
