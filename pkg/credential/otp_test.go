package credential

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPIssuer_Generate(t *testing.T) {
	iss := NewOTPIssuer("server-secret", 6, 5*time.Minute)

	before := time.Now()
	otp, err := iss.Generate()
	require.NoError(t, err)

	require.Len(t, otp.Code, 6)
	for _, r := range otp.Code {
		assert.True(t, r >= '0' && r <= '9', "code must be numeric, got %q", otp.Code)
	}

	// The stored digest is HMAC-SHA256(secret, code), hex-encoded.
	mac := hmac.New(sha256.New, []byte("server-secret"))
	mac.Write([]byte(otp.Code))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), otp.CodeHash)

	assert.WithinDuration(t, before.Add(5*time.Minute), otp.ExpiresAt, 2*time.Second)
}

func TestOTPIssuer_CodeSpaceScalesWithLength(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		iss := NewOTPIssuer("s", length, time.Minute)
		for n := 0; n < 20; n++ {
			otp, err := iss.Generate()
			require.NoError(t, err)
			assert.Len(t, otp.Code, length)
		}
	}
}

func TestNewOTPIssuer_LengthClamped(t *testing.T) {
	assert.Equal(t, 6, NewOTPIssuer("s", 0, time.Minute).Length)
	assert.Equal(t, 6, NewOTPIssuer("s", 42, time.Minute).Length)
}

func TestOTPIssuer_Matches(t *testing.T) {
	iss := NewOTPIssuer("server-secret", 6, time.Minute)

	digest := iss.Digest("042391")
	assert.True(t, iss.Matches("042391", digest))
	assert.False(t, iss.Matches("042392", digest))
	assert.False(t, iss.Matches("042391", "zz-not-hex"))

	// A digest produced under a different secret never matches.
	other := NewOTPIssuer("other-secret", 6, time.Minute)
	assert.False(t, other.Matches("042391", digest))
}

func TestOTPIssuer_DigestDeterministic(t *testing.T) {
	iss := NewOTPIssuer("server-secret", 6, time.Minute)
	assert.Equal(t, iss.Digest("123456"), iss.Digest("123456"))
	assert.NotEqual(t, iss.Digest("123456"), iss.Digest("654321"))
}
