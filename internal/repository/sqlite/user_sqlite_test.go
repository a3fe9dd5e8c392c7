package sqlite_repo_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
	sqlite_repo "github.com/SimpnicServerTeam/timesheet-session/internal/repository/sqlite"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo sets up a private in-memory SQLite database for each test.
func newTestRepo(t *testing.T) (context.Context, *sql.DB, repository.UserRepository) {
	t.Helper()
	ctx := context.Background()
	db, err := sql.Open("sqlite3", "file::memory:?_fk=1")
	require.NoError(t, err)
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqlite_repo.Migrate(ctx, db))
	return ctx, db, sqlite_repo.NewSQLiteUserRepository(db)
}

func TestSQLiteUserRepository(t *testing.T) {
	user1 := &models.UserInfo{
		ID:          "11111111-1111-4111-8111-111111111111",
		AuthID:      "user1@example.com",
		DisplayName: "User One",
		Salt:        "salt1",
		Verifier:    "verifier1",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	t.Run("CreateAndGetUser", func(t *testing.T) {
		ctx, _, repo := newTestRepo(t)

		require.NoError(t, repo.CreateUser(ctx, user1))

		info, err := repo.GetUserInfoByAuthID(ctx, user1.AuthID)
		require.NoError(t, err)
		assert.Equal(t, user1.ID, info.ID)
		assert.Equal(t, user1.DisplayName, info.DisplayName)
		assert.Equal(t, user1.Salt, info.Salt)
		assert.Equal(t, user1.Verifier, info.Verifier)

		byID, err := repo.GetUserInfoByID(ctx, user1.ID)
		require.NoError(t, err)
		assert.Equal(t, user1.AuthID, byID.AuthID)
	})

	t.Run("GetUserNotFound", func(t *testing.T) {
		ctx, _, repo := newTestRepo(t)

		_, err := repo.GetUserInfoByAuthID(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, repository.ErrUserNotFound)
	})

	t.Run("CreateUserExists", func(t *testing.T) {
		ctx, _, repo := newTestRepo(t)

		require.NoError(t, repo.CreateUser(ctx, user1))

		dup := *user1
		dup.ID = "22222222-2222-4222-8222-222222222222"
		err := repo.CreateUser(ctx, &dup)
		assert.ErrorIs(t, err, repository.ErrUserExists)
	})

	t.Run("UpdateUserSRPAuth", func(t *testing.T) {
		ctx, _, repo := newTestRepo(t)

		require.NoError(t, repo.CreateUser(ctx, user1))
		require.NoError(t, repo.UpdateUserSRPAuth(ctx, user1.AuthID, "salt2", "verifier2"))

		info, err := repo.GetUserInfoByAuthID(ctx, user1.AuthID)
		require.NoError(t, err)
		assert.Equal(t, "salt2", info.Salt)
		assert.Equal(t, "verifier2", info.Verifier)
		assert.Equal(t, user1.DisplayName, info.DisplayName)
	})

	t.Run("UpdateUserSRPAuthNotFound", func(t *testing.T) {
		ctx, _, repo := newTestRepo(t)

		err := repo.UpdateUserSRPAuth(ctx, "nobody@example.com", "s", "v")
		assert.ErrorIs(t, err, repository.ErrUserNotFound)
	})
}
