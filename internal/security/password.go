package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters
const (
	saltLen    = 16
	argonTime  = 1
	argonMem   = 64 * 1024
	argonLanes = 4
	keyLen     = 32
)

// HashPassword derives a salted argon2id digest for plaintext. The salt is
// fresh random data, and both values come back hex-encoded for the record
// store.
func HashPassword(plaintext string) (salt, hash string, err error) {
	raw := make([]byte, saltLen)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), raw, argonTime, argonMem, argonLanes, keyLen)
	return hex.EncodeToString(raw), hex.EncodeToString(key), nil
}

// VerifyPassword recomputes the digest for candidate under the stored salt
// and compares in constant time. Malformed stored values verify as false.
func VerifyPassword(salt, storedHash, candidate string) bool {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(candidate), rawSalt, argonTime, argonMem, argonLanes, keyLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}
