package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// prehash maps a password of any length to 44 bytes so it stays under
// bcrypt's 72-byte input limit without truncation.
func prehash(plain string) []byte {
	sum := sha256.Sum256([]byte(plain))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// HashPassword returns bcrypt hash of the pre-hashed password using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword(prehash(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(plain)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// BurnVerify performs a bcrypt comparison against a throwaway digest of the
// given cost so that a lookup miss costs about as much as a wrong password.
func BurnVerify(plain string, cost int) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword(prehash("retentionai-dummy-password"), cost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, prehash(plain))
}
