// Package security hashes the shared access password that guards the web
// upload form. `tipsheet setup` stores the encoded hash in the env file and
// the basic auth middleware checks requests against it.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	hashScheme    = "v1"
	hashRounds    = 180000
	minHashRounds = 100000
	saltSize      = 16

	MinPasswordLength = 12
)

var (
	ErrPasswordTooShort = fmt.Errorf("access password must be at least %d characters", MinPasswordLength)
	ErrMalformedHash    = errors.New("malformed access password hash")
)

// accessHash is the decoded form of "v1$<rounds>$<salt>$<digest>".
type accessHash struct {
	rounds int
	salt   []byte
	digest []byte
}

func (h accessHash) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("%s$%d$%s$%s", hashScheme, h.rounds, enc.EncodeToString(h.salt), enc.EncodeToString(h.digest))
}

func parseAccessHash(encoded string) (accessHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 {
		return accessHash{}, fmt.Errorf("%w: want 4 fields, got %d", ErrMalformedHash, len(parts))
	}
	if parts[0] != hashScheme {
		return accessHash{}, fmt.Errorf("%w: unknown scheme %q", ErrMalformedHash, parts[0])
	}
	rounds, err := strconv.Atoi(parts[1])
	if err != nil {
		return accessHash{}, fmt.Errorf("%w: rounds: %v", ErrMalformedHash, err)
	}
	if rounds < minHashRounds {
		return accessHash{}, fmt.Errorf("%w: %d rounds is below %d", ErrMalformedHash, rounds, minHashRounds)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return accessHash{}, fmt.Errorf("%w: bad salt", ErrMalformedHash)
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(digest) != sha256.Size {
		return accessHash{}, fmt.Errorf("%w: bad digest", ErrMalformedHash)
	}
	return accessHash{rounds: rounds, salt: salt, digest: digest}, nil
}

// HashPassword encodes the access password for TIPSHEET_ACCESS_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	h := accessHash{rounds: hashRounds, salt: salt}
	h.digest = stretch(password, salt, hashRounds)
	return h.String(), nil
}

// CheckHash reports why a configured access hash can never match, or nil.
func CheckHash(encoded string) error {
	_, err := parseAccessHash(encoded)
	return err
}

// VerifyPassword reports whether a basic auth password matches the
// configured hash. A malformed hash matches nothing.
func VerifyPassword(password, encoded string) bool {
	h, err := parseAccessHash(encoded)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(stretch(password, h.salt, h.rounds), h.digest) == 1
}

// stretch runs salted SHA-256 rounds over the password.
func stretch(password string, salt []byte, rounds int) []byte {
	sum := sha256.Sum256(append(append([]byte{}, salt...), password...))
	for i := 1; i < rounds; i++ {
		sum = sha256.Sum256(append(sum[:], salt...))
	}
	return sum[:]
}
