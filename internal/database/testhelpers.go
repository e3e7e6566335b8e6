package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"feedpulse/internal/domain"
)

// CreateTestUser creates a user row for integration tests.
func CreateTestUser(t *testing.T, pool *pgxpool.Pool, username string) *domain.User {
	t.Helper()

	repo := NewUserRepo(pool)
	user, err := repo.Insert(context.Background(), username)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)

	return user
}
