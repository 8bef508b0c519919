package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-service/internal/domain/entity"
	repo "github.com/oksasatya/go-user-service/internal/domain/repository"
	"github.com/oksasatya/go-user-service/pkg/helpers"
)

// PasswordHasher is the password work the manager needs; helpers.PasswordHasher
// implements it.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
	VerifyAndRehash(plain, hash string) (bool, string, error)
	ValidateStrength(plain string) error
	DummyVerify(plain string)
}

var _ PasswordHasher = (*helpers.PasswordHasher)(nil)

// UserManager owns the business rules around users: registration,
// authentication, updates and lookups. Persistence is delegated to Repo.
type UserManager struct {
	Repo   repo.UserRepository
	Hasher PasswordHasher
	Hooks  Hooks
	Logger *logrus.Logger
}

func NewUserManager(repo repo.UserRepository, hasher PasswordHasher, hooks Hooks, logger *logrus.Logger) *UserManager {
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &UserManager{Repo: repo, Hasher: hasher, Hooks: hooks, Logger: logger}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (m *UserManager) ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

// GetUserByID fails with ErrUserNotExists when no user matches.
func (m *UserManager) GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, err := m.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotExists
	}
	return u, nil
}

// GetUserByEmail fails with ErrUserNotExists when no user matches.
func (m *UserManager) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := m.Repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotExists
	}
	return u, nil
}

// CreateUser registers a user. Flag overrides in the payload are ignored.
func (m *UserManager) CreateUser(ctx context.Context, in entity.UserCreate) (*entity.User, error) {
	return m.create(ctx, in, false)
}

// CreateUserWithFlags registers a user honouring is_active/is_superuser/is_verified.
func (m *UserManager) CreateUserWithFlags(ctx context.Context, in entity.UserCreate) (*entity.User, error) {
	return m.create(ctx, in, true)
}

func (m *UserManager) create(ctx context.Context, in entity.UserCreate, withFlags bool) (*entity.User, error) {
	if err := m.Hasher.ValidateStrength(in.Password); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)
	existing, err := m.Repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}
	hash, err := m.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	nu := entity.NewUser{Email: email, HashedPassword: hash, IsActive: true}
	if withFlags {
		if in.IsActive != nil {
			nu.IsActive = *in.IsActive
		}
		if in.IsSuperuser != nil {
			nu.IsSuperuser = *in.IsSuperuser
		}
		if in.IsVerified != nil {
			nu.IsVerified = *in.IsVerified
		}
	}

	u, err := m.Repo.Create(ctx, nu)
	if err != nil {
		// another registration won the race between the lookup and the insert
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	m.Hooks.AfterRegister(ctx, u)
	return u, nil
}

// Authenticate checks credentials and returns ErrInvalidCredentials for an
// unknown email or a wrong password alike. A hash stored with an outdated
// cost is upgraded on success.
func (m *UserManager) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := m.Repo.GetByEmail(ctx, NormalizeEmail(username))
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if u == nil {
		m.Hasher.DummyVerify(password)
		return nil, ErrInvalidCredentials
	}

	verified, fresh, err := m.Hasher.VerifyAndRehash(password, u.HashedPassword)
	if !verified {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		if m.Logger != nil {
			m.Logger.WithError(err).WithField("user_id", u.ID).Warn("password rehash failed")
		}
		return u, nil
	}
	if fresh != "" {
		u, err = m.Repo.Update(ctx, u, entity.UserChanges{HashedPassword: &fresh})
		if err != nil {
			return nil, fmt.Errorf("persist rehashed password: %w", err)
		}
	}
	return u, nil
}

// UpdateUser applies email and password changes. Protected flags are dropped.
func (m *UserManager) UpdateUser(ctx context.Context, u *entity.User, in entity.UserUpdate) (*entity.User, error) {
	in.IsActive, in.IsSuperuser, in.IsVerified = nil, nil, nil
	return m.update(ctx, u, in)
}

// UpdateUserWithFlags is the privileged variant that also writes the flags.
func (m *UserManager) UpdateUserWithFlags(ctx context.Context, u *entity.User, in entity.UserUpdate) (*entity.User, error) {
	return m.update(ctx, u, in)
}

func (m *UserManager) update(ctx context.Context, u *entity.User, in entity.UserUpdate) (*entity.User, error) {
	var ch entity.UserChanges

	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if email != u.Email {
			existing, err := m.Repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("lookup user by email: %w", err)
			}
			if existing != nil {
				return nil, ErrUserAlreadyExists
			}
			unverified := false
			ch.Email = &email
			ch.IsVerified = &unverified
		}
	}

	if in.Password != nil {
		// same password as the current one is rejected, not silently ignored
		if m.Hasher.Verify(*in.Password, u.HashedPassword) {
			return nil, ErrInvalidPassword
		}
		if err := m.Hasher.ValidateStrength(*in.Password); err != nil {
			return nil, err
		}
		hash, err := m.Hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		ch.HashedPassword = &hash
	}

	if in.IsActive != nil {
		ch.IsActive = in.IsActive
	}
	if in.IsSuperuser != nil {
		ch.IsSuperuser = in.IsSuperuser
	}
	if in.IsVerified != nil {
		ch.IsVerified = in.IsVerified
	}

	if ch.IsEmpty() {
		return u, nil
	}
	updated, err := m.Repo.Update(ctx, u, ch)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateEmail):
			return nil, ErrUserAlreadyExists
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrUserNotExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	m.Hooks.AfterUpdate(ctx, updated, ch.Fields())
	return updated, nil
}

// DeleteUser removes u from the store.
func (m *UserManager) DeleteUser(ctx context.Context, u *entity.User) error {
	if err := m.Repo.Delete(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotExists
		}
		return fmt.Errorf("delete user: %w", err)
	}
	m.Hooks.AfterDelete(ctx, u)
	return nil
}

// OnAfterLogin notifies hooks about a successful login.
func (m *UserManager) OnAfterLogin(ctx context.Context, u *entity.User, meta LoginMeta) {
	m.Hooks.AfterLogin(ctx, u, meta)
}

var _ UserResolver = (*UserManager)(nil)
