package credential

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// OTP is a freshly issued one-time code together with the digest the caller
// should persist. The plaintext Code goes to the user (by email) and is never
// stored or logged; only CodeHash is written to the database.
type OTP struct {
	Code      string
	CodeHash  string
	ExpiresAt time.Time
}

// OTPIssuer mints short numeric one-time codes. It holds no state between
// calls and persists nothing; the caller stores the returned digest and
// expiry. The code space scales with Length (10^Length values), so an
// 8-digit deployment actually gets 8 digits of entropy.
type OTPIssuer struct {
	Secret string
	Length int
	TTL    time.Duration
}

func NewOTPIssuer(secret string, length int, ttl time.Duration) *OTPIssuer {
	if length < 4 || length > 10 {
		length = 6
	}
	return &OTPIssuer{Secret: secret, Length: length, TTL: ttl}
}

// Generate draws a fresh code. A failing random source is returned as
// ErrRandomSource; there is no weaker fallback.
func (i *OTPIssuer) Generate() (OTP, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return OTP{}, fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	space := uint64(1)
	for n := 0; n < i.Length; n++ {
		space *= 10
	}
	code := fmt.Sprintf("%0*d", i.Length, binary.BigEndian.Uint64(buf[:])%space)
	return OTP{
		Code:      code,
		CodeHash:  i.Digest(code),
		ExpiresAt: time.Now().Add(i.TTL),
	}, nil
}

// Digest returns the hex-encoded keyed digest of code, the form stored in
// the database.
func (i *OTPIssuer) Digest(code string) string {
	mac := hmac.New(sha256.New, []byte(i.Secret))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// Matches compares a submitted code against a stored digest in constant time.
func (i *OTPIssuer) Matches(code, storedHash string) bool {
	want, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(i.Secret))
	mac.Write([]byte(code))
	return hmac.Equal(mac.Sum(nil), want)
}
