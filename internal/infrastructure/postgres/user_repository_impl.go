package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-user-service/internal/domain/entity"
	"github.com/oksasatya/go-user-service/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id, email, hashed_password, is_active, is_superuser, is_verified, created_at, updated_at`

// DB is the part of *pgxpool.Pool the repository uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository stores users in PostgreSQL. Every mutation runs in its own
// transaction: committed on success, rolled back on any error.
type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.IsActive, &u.IsSuperuser, &u.IsVerified,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicateEmail
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `email = $1`, email)
}

func (r *UserRepository) Create(ctx context.Context, in entity.NewUser) (*entity.User, error) {
	var u *entity.User
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		u, err = scanUser(tx.QueryRow(ctx, `
			INSERT INTO users (id, email, hashed_password, is_active, is_superuser, is_verified)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+userColumns,
			uuid.New(), in.Email, in.HashedPassword, in.IsActive, in.IsSuperuser, in.IsVerified))
		return err
	})
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User, ch entity.UserChanges) (*entity.User, error) {
	if ch.IsEmpty() {
		return u, nil
	}
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if ch.Email != nil {
		set("email", *ch.Email)
	}
	if ch.HashedPassword != nil {
		set("hashed_password", *ch.HashedPassword)
	}
	if ch.IsActive != nil {
		set("is_active", *ch.IsActive)
	}
	if ch.IsSuperuser != nil {
		set("is_superuser", *ch.IsSuperuser)
	}
	if ch.IsVerified != nil {
		set("is_verified", *ch.IsVerified)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, u.ID)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`, strings.Join(sets, ", "), len(args), userColumns)

	var updated *entity.User
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		updated, err = scanUser(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, u *entity.User) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, u.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

var _ repository.UserRepository = (*UserRepository)(nil)
