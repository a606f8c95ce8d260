package repository

import (
	"context"

	"github.com/campuskit/campus-api/internal/domain/entity"
)

// TokenRepository defines persistence for email verification tokens.
//
// Two operations carry the atomicity guarantees the verification flow relies
// on. Issue supersedes any prior active token for the same (user, purpose) in
// the same transaction that inserts the new one, so two codes are never valid
// at once. ConsumeAndSaveUser marks a token consumed and persists the user
// mutation it authorized (status flip, password change) as one unit, so a
// crash can neither burn a code without effect nor apply an effect twice.
type TokenRepository interface {
	Issue(ctx context.Context, t *entity.VerificationToken) error
	GetActive(ctx context.Context, userID string, purpose entity.Purpose) (*entity.VerificationToken, error)
	ConsumeAndSaveUser(ctx context.Context, tokenID string, u *entity.User) error
}
