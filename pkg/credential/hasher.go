package credential

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptyPlaintext is returned when an empty secret is passed to Hash or Compare.
	ErrEmptyPlaintext = errors.New("credential: empty plaintext")
	// ErrRandomSource is returned when the platform's secure random source fails.
	// Callers must treat this as fatal for the operation; there is no fallback.
	ErrRandomSource = errors.New("credential: secure random source unavailable")
)

// Hasher produces and verifies password hashes. Every plaintext is first run
// through HMAC-SHA256 keyed with the server pepper, then hex-encoded and fed
// into bcrypt. The pre-hash bounds the input bcrypt sees to a fixed 64 bytes
// and ties every stored hash to the pepper, so a leaked hash table cannot be
// attacked offline without it. The bcrypt salt is generated per call and
// embedded in the output string.
type Hasher struct {
	Pepper string
	Cost   int
}

func NewHasher(pepper string, cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{Pepper: pepper, Cost: cost}
}

// Hash returns the stored form of plain. The result embeds algorithm, cost
// and salt, so it is directly comparable later without external state.
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPlaintext
	}
	b, err := bcrypt.GenerateFromPassword(h.prehash(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether plain matches storedHash. A well-formed mismatch is
// (false, nil); only an empty plaintext is an error, mirroring Hash.
func (h *Hasher) Compare(plain, storedHash string) (bool, error) {
	if plain == "" {
		return false, ErrEmptyPlaintext
	}
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), h.prehash(plain))
	return err == nil, nil
}

// prehash must match between Hash and Compare exactly: the keyed digest is
// hex-encoded before it reaches bcrypt.
func (h *Hasher) prehash(plain string) []byte {
	mac := hmac.New(sha256.New, []byte(h.Pepper))
	mac.Write([]byte(plain))
	return []byte(hex.EncodeToString(mac.Sum(nil)))
}
