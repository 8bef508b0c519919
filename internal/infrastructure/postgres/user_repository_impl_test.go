package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-service/internal/domain/entity"
	"github.com/oksasatya/go-user-service/internal/domain/repository"
)

var columns = []string{"id", "email", "hashed_password", "is_active", "is_superuser", "is_verified", "created_at", "updated_at"}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *UserRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewUserRepository(mock)
}

func TestUserRepository_Create(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "king.arthur@camelot.bt", "hash", true, false, false).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(id, "king.arthur@camelot.bt", "hash", true, false, false, now, now))
	mock.ExpectCommit()

	u, err := repo.Create(ctx, entity.NewUser{Email: "king.arthur@camelot.bt", HashedPassword: "hash", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.True(t, u.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateRollsBack(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), entity.NewUser{Email: "dup@camelot.bt", HashedPassword: "hash"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock, repo := newMock(t)
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM users WHERE email = \\$1").
		WithArgs("lancelot@camelot.bt").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(id, "lancelot@camelot.bt", "hash", true, true, true, now, now))
	mock.ExpectQuery("SELECT .+ FROM users WHERE email = \\$1").
		WithArgs("nobody@camelot.bt").
		WillReturnError(pgx.ErrNoRows)

	u, err := repo.GetByEmail(ctx, "lancelot@camelot.bt")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.True(t, u.IsSuperuser)

	u, err = repo.GetByEmail(ctx, "nobody@camelot.bt")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDDriverError(t *testing.T) {
	mock, repo := newMock(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM users WHERE id = \\$1").
		WithArgs(id).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateOnlyChangedColumns(t *testing.T) {
	mock, repo := newMock(t)
	id := uuid.New()
	now := time.Now()
	email := "percival@camelot.bt"
	verified := false

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET email = $1, is_verified = $2, updated_at = now() WHERE id = $3")).
		WithArgs(email, false, id).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(id, email, "hash", true, false, false, now, now))
	mock.ExpectCommit()

	u, err := repo.Update(context.Background(), &entity.User{ID: id}, entity.UserChanges{Email: &email, IsVerified: &verified})
	require.NoError(t, err)
	assert.Equal(t, email, u.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateEmptyIsNoop(t *testing.T) {
	mock, repo := newMock(t)
	in := &entity.User{ID: uuid.New(), Email: "gawain@camelot.bt"}

	u, err := repo.Update(context.Background(), in, entity.UserChanges{})
	require.NoError(t, err)
	assert.Same(t, in, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	mock, repo := newMock(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM users").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Delete(context.Background(), &entity.User{ID: id}))

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM users").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()
	assert.ErrorIs(t, repo.Delete(context.Background(), &entity.User{ID: id}), repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
