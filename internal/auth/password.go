package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// PasswordHasher hashes new credentials with bcrypt and verifies both
// bcrypt digests and legacy pbkdf2_sha256 digests in passlib format
// (pbkdf2_sha256$<rounds>$<salt>$<digest>). Verify-old, write-new: a
// principal carrying a legacy digest keeps authenticating until the
// next password change stores a bcrypt digest.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether the plaintext matches the digest. It never
// errors: a malformed or unrecognized digest verifies as false.
func (h *PasswordHasher) Verify(password, digest string) bool {
	if digest == "" {
		return false
	}
	if strings.HasPrefix(digest, legacyPrefix) {
		return verifyPBKDF2(password, digest)
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

const legacyPrefix = "pbkdf2_sha256$"

func verifyPBKDF2(password, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 4 {
		return false
	}

	rounds, err := strconv.Atoi(parts[1])
	if err != nil || rounds < 1 {
		return false
	}

	// passlib encodes salt and digest with the ab64 alphabet ('.' for '+', no padding)
	salt, err := decodeAB64(parts[2])
	if err != nil {
		return false
	}
	want, err := decodeAB64(parts[3])
	if err != nil {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, rounds, sha256.Size, sha256.New)
	return hmac.Equal(got, want)
}

func decodeAB64(s string) ([]byte, error) {
	s = strings.ReplaceAll(s, ".", "+")
	return base64.RawStdEncoding.DecodeString(s)
}
