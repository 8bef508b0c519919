// Package memory holds process-local store adapters for tests and single-node dev runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-user-service/internal/domain/entity"
	"github.com/oksasatya/go-user-service/internal/domain/repository"
)

// UserRepository is a thread-safe in-memory user store. It hands out copies,
// so callers never alias stored records.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*entity.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[uuid.UUID]*entity.User),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func clone(u *entity.User) *entity.User {
	c := *u
	return &c
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return clone(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepository) Create(_ context.Context, in entity.NewUser) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[in.Email]; taken {
		return nil, repository.ErrDuplicateEmail
	}
	now := r.now().UTC()
	u := &entity.User{
		ID:             uuid.New(),
		Email:          in.Email,
		HashedPassword: in.HashedPassword,
		IsActive:       in.IsActive,
		IsSuperuser:    in.IsSuperuser,
		IsVerified:     in.IsVerified,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return clone(u), nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User, ch entity.UserChanges) (*entity.User, error) {
	if ch.IsEmpty() {
		return u, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[u.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	oldEmail := stored.Email
	if ch.Email != nil && *ch.Email != oldEmail {
		if _, taken := r.byEmail[*ch.Email]; taken {
			return nil, repository.ErrDuplicateEmail
		}
	}
	ch.Apply(stored)
	stored.UpdatedAt = r.now().UTC()
	if stored.Email != oldEmail {
		delete(r.byEmail, oldEmail)
		r.byEmail[stored.Email] = stored.ID
	}
	return clone(stored), nil
}

func (r *UserRepository) Delete(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byEmail, stored.Email)
	delete(r.byID, u.ID)
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
