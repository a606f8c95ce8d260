package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher("pepper123", bcrypt.MinCost)

	stored, err := h.Hash("Str0ngP@ss!")
	require.NoError(t, err)
	require.NotEmpty(t, stored)
	assert.True(t, strings.HasPrefix(stored, "$2"), "bcrypt output should be self-describing")

	ok, err := h.Compare("Str0ngP@ss!", stored)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare("wrong", stored)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_EmptyPlaintext(t *testing.T) {
	h := NewHasher("pepper123", bcrypt.MinCost)

	_, err := h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPlaintext)

	_, err = h.Compare("", "$2a$04$whatever")
	assert.ErrorIs(t, err, ErrEmptyPlaintext)
}

func TestHasher_DifferentPepperDoesNotMatch(t *testing.T) {
	h1 := NewHasher("pepper-one", bcrypt.MinCost)
	h2 := NewHasher("pepper-two", bcrypt.MinCost)

	stored, err := h1.Hash("same-password")
	require.NoError(t, err)

	ok, err := h2.Compare("same-password", stored)
	require.NoError(t, err)
	assert.False(t, ok, "hash must be bound to the pepper it was created with")
}

func TestHasher_SaltVariesPerCall(t *testing.T) {
	h := NewHasher("pepper123", bcrypt.MinCost)

	a, err := h.Hash("password-1")
	require.NoError(t, err)
	b, err := h.Hash("password-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "each hash carries its own salt")

	for _, stored := range []string{a, b} {
		ok, cerr := h.Compare("password-1", stored)
		require.NoError(t, cerr)
		assert.True(t, ok)
	}
}

func TestHasher_MalformedStoredHash(t *testing.T) {
	h := NewHasher("pepper123", bcrypt.MinCost)

	ok, err := h.Compare("anything", "not-a-bcrypt-hash")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_LongInputsAreBounded(t *testing.T) {
	// bcrypt rejects inputs over 72 bytes; the pre-hash keeps the plaintext
	// length unbounded from the caller's perspective.
	h := NewHasher("pepper123", bcrypt.MinCost)
	long := strings.Repeat("x", 4096)

	stored, err := h.Hash(long)
	require.NoError(t, err)

	ok, err := h.Compare(long, stored)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewHasher_CostClamped(t *testing.T) {
	h := NewHasher("p", 99)
	assert.Equal(t, bcrypt.DefaultCost, h.Cost)

	h = NewHasher("p", 0)
	assert.Equal(t, bcrypt.DefaultCost, h.Cost)
}
