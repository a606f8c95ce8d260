package entity

import "time"

// TokenType distinguishes delivery forms of a verification token. Only
// numeric one-time codes exist today; link-based tokens would be a new type.
type TokenType string

const (
	TokenTypeOTP TokenType = "otp"
)

// Purpose scopes a verification token to the single action it authorizes.
// A code issued for activation can never confirm a password reset.
type Purpose string

const (
	PurposeAccountActivation Purpose = "account_activation"
	PurposePasswordReset     Purpose = "password_reset"
)

// VerificationToken is a single-use, time-boxed proof of access to an email
// address. TokenHash is the keyed digest of the plaintext code; the code
// itself is never persisted or logged. At most one active token exists per
// (UserID, Purpose) — issuing a new one supersedes the previous.
type VerificationToken struct {
	ID        string
	UserID    string
	TokenHash string
	TokenType TokenType
	Purpose   Purpose
	ExpiresAt time.Time
	CreatedAt time.Time
	ConsumedAt *time.Time
	DeletedAt  *time.Time
}

// Usable reports whether the token can still be consumed at now: not
// expired, not consumed, not superseded.
func (t *VerificationToken) Usable(now time.Time) bool {
	return t.ConsumedAt == nil && t.DeletedAt == nil && now.Before(t.ExpiresAt)
}
