package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuskit/campus-api/internal/domain/entity"
	"github.com/campuskit/campus-api/internal/domain/repository"
)

// TokenRepository is the pgx implementation of repository.TokenRepository.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Issue supersedes any active token for (user, purpose) and inserts the new
// one in a single transaction, so at no point are two codes valid at once.
func (r *TokenRepository) Issue(ctx context.Context, t *entity.VerificationToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE verification_tokens
		SET deleted_at = now()
		WHERE user_id = $1 AND purpose = $2
		  AND consumed_at IS NULL AND deleted_at IS NULL
	`, t.UserID, t.Purpose); err != nil {
		return err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO verification_tokens (user_id, token_hash, token_type, purpose, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, t.UserID, t.TokenHash, t.TokenType, t.Purpose, t.ExpiresAt)
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *TokenRepository) GetActive(ctx context.Context, userID string, purpose entity.Purpose) (*entity.VerificationToken, error) {
	t := &entity.VerificationToken{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, token_type, purpose, expires_at, created_at, consumed_at, deleted_at
		FROM verification_tokens
		WHERE user_id = $1 AND purpose = $2
		  AND consumed_at IS NULL AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, purpose)

	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.TokenType, &t.Purpose,
		&t.ExpiresAt, &t.CreatedAt, &t.ConsumedAt, &t.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// ConsumeAndSaveUser burns the token and persists the user mutation it
// authorized in one transaction. The consumed/expired guard is re-checked in
// SQL so a concurrent consumer loses cleanly with ErrNotFound.
func (r *TokenRepository) ConsumeAndSaveUser(ctx context.Context, tokenID string, u *entity.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
		UPDATE verification_tokens
		SET consumed_at = now()
		WHERE id = $1
		  AND consumed_at IS NULL AND deleted_at IS NULL AND expires_at > now()
		RETURNING id
	`, tokenID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}

	u.UpdatedAt = time.Now()
	res, err := tx.Exec(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3, email = $4,
		    password_hash = $5, avatar_url = $6, status = $7, role = $8,
		    updated_at = $9, deleted_at = $10
		WHERE id = $11
	`, u.FirstName, u.LastName, u.Phone, u.Email, u.Password, u.AvatarURL,
		u.Status, u.Role, u.UpdatedAt, u.DeletedAt, u.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return tx.Commit(ctx)
}

var _ repository.TokenRepository = (*TokenRepository)(nil)
