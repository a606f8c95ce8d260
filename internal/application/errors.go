package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotActive   = errors.New("account is not active")

	// ErrTokenExpiredOrConsumed and ErrCodeMismatch are deliberately distinct:
	// the first means "request a new code", the second "the code is wrong".
	ErrTokenExpiredOrConsumed = errors.New("verification code expired or already used")
	ErrCodeMismatch           = errors.New("incorrect verification code")
)
