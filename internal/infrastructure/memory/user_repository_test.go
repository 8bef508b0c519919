package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-service/internal/domain/entity"
	"github.com/oksasatya/go-user-service/internal/domain/repository"
)

func TestUserRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	u, err := repo.Create(ctx, entity.NewUser{Email: "king.arthur@camelot.bt", HashedPassword: "h1", IsActive: true})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)

	got, err := repo.GetByEmail(ctx, "king.arthur@camelot.bt")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got.Email = "mutated@camelot.bt"
	again, _ := repo.GetByID(ctx, u.ID)
	assert.Equal(t, "king.arthur@camelot.bt", again.Email, "returned users must be copies")

	email := "arthur@camelot.bt"
	updated, err := repo.Update(ctx, u, entity.UserChanges{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)

	old, err := repo.GetByEmail(ctx, "king.arthur@camelot.bt")
	require.NoError(t, err)
	assert.Nil(t, old)

	require.NoError(t, repo.Delete(ctx, u))
	missing, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, repo.Delete(ctx, u), repository.ErrNotFound)
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	a, err := repo.Create(ctx, entity.NewUser{Email: "a@camelot.bt"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, entity.NewUser{Email: "b@camelot.bt"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, entity.NewUser{Email: "a@camelot.bt"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	taken := "b@camelot.bt"
	_, err = repo.Update(ctx, a, entity.UserChanges{Email: &taken})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Create(ctx, entity.NewUser{Email: "race@camelot.bt"}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}
