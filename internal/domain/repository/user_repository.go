package repository

import (
	"context"
	"errors"

	"github.com/campuskit/campus-api/internal/domain/entity"
)

// ErrNotFound is returned by lookups that match no live record. Soft-deleted
// users are invisible to every lookup here.
var ErrNotFound = errors.New("not found")

// UserRepository defines the persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	List(ctx context.Context, limit, offset int) ([]entity.User, error)
}
