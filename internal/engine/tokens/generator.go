package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// SecretPrefix identifies personal access tokens on the wire.
	SecretPrefix = "pat_"
	// SecretBytes is the number of random bytes backing a secret.
	SecretBytes = 32
	// PrefixDisplayLength is how many secret characters follow "pat_" in the
	// stored lookup prefix.
	PrefixDisplayLength = 8
	// PrefixLength is the full stored prefix length ("pat_" + 8 chars).
	PrefixLength = len(SecretPrefix) + PrefixDisplayLength
)

// GenerateSecret mints a new token secret and returns the plaintext, its
// SHA-256 hash, and the lookup prefix. The plaintext is shown to the caller
// exactly once and never persisted; the prefix is deliberately short and not
// unique, so verification always goes through the hash.
func GenerateSecret() (secret, secretHash, prefix string, err error) {
	raw := make([]byte, SecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	secret = SecretPrefix + hex.EncodeToString(raw)
	return secret, HashSecret(secret), LookupPrefix(secret), nil
}

// HashSecret computes the SHA-256 hex digest of a full secret.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// LookupPrefix extracts the fixed-length candidate-lookup prefix.
func LookupPrefix(secret string) string {
	return secret[:PrefixLength]
}

// ValidFormat reports whether a credential is even worth a store lookup.
func ValidFormat(credential string) bool {
	return strings.HasPrefix(credential, SecretPrefix) && len(credential) >= PrefixLength
}
