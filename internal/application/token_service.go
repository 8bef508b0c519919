package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/oksasatya/go-user-service/internal/domain/entity"
	"github.com/oksasatya/go-user-service/pkg/helpers"
)

// UserResolver turns a token subject into a user. UserManager satisfies it.
type UserResolver interface {
	ParseID(raw string) (uuid.UUID, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// TokenStrategy issues and validates bearer tokens.
type TokenStrategy interface {
	Issue(u *entity.User) (string, error)
	Validate(ctx context.Context, token string, resolver UserResolver) (*entity.User, bool)
	Revoke(ctx context.Context, token string, u *entity.User) error
}

// TokenService is a stateless JWT strategy: nothing is stored server side,
// so tokens cannot be revoked before they expire.
type TokenService struct {
	JWT *helpers.JWTManager
}

func NewTokenService(jwt *helpers.JWTManager) *TokenService {
	return &TokenService{JWT: jwt}
}

// Issue signs {sub, email, aud, iat[, exp]} for u.
func (s *TokenService) Issue(u *entity.User) (string, error) {
	token, _, err := s.JWT.Generate(u.ID.String(), u.Email)
	return token, err
}

// Validate resolves the user behind token. Every failure collapses to false.
func (s *TokenService) Validate(ctx context.Context, token string, resolver UserResolver) (*entity.User, bool) {
	if token == "" {
		return nil, false
	}
	claims, err := s.JWT.Parse(token)
	if err != nil || claims.Subject == "" {
		return nil, false
	}
	id, err := resolver.ParseID(claims.Subject)
	if err != nil {
		return nil, false
	}
	u, err := resolver.GetUserByID(ctx, id)
	if err != nil || u == nil {
		return nil, false
	}
	return u, true
}

func (s *TokenService) Revoke(ctx context.Context, token string, u *entity.User) error {
	return ErrRevocationUnsupported
}

var _ TokenStrategy = (*TokenService)(nil)
