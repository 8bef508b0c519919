package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/oksasatya/go-user-service/internal/domain/entity"
)

var (
	// ErrDuplicateEmail is returned when a write violates the unique email constraint.
	ErrDuplicateEmail = errors.New("repository: email already taken")
	// ErrNotFound is returned by mutations targeting a missing record.
	ErrNotFound = errors.New("repository: user not found")
)

// UserRepository is the persistence capability consumed by the user manager.
// Lookups return (nil, nil) when nothing matches. No business rules live here.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, in entity.NewUser) (*entity.User, error)
	Update(ctx context.Context, u *entity.User, ch entity.UserChanges) (*entity.User, error)
	Delete(ctx context.Context, u *entity.User) error
}
