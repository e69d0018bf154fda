package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/noteflow/internal/db"
	"github.com/geocoder89/noteflow/internal/domain/note"
	"github.com/geocoder89/noteflow/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_DB_DSN, migrates, and empties the tables.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))

	_, err = pool.Exec(ctx, `TRUNCATE notes, users`)
	require.NoError(t, err)

	return pool
}

func seedUser(t *testing.T, repo *UsersRepo, email string) user.User {
	t.Helper()

	u, err := repo.Create(context.Background(), user.New("Test", email, "hash"))
	require.NoError(t, err)

	return u
}

func TestUsersRepo(t *testing.T) {
	pool := testPool(t)
	repo := NewUsersRepo(pool, nil)
	ctx := context.Background()

	u := seedUser(t, repo, "Ann@Example.com")

	_, err := repo.Create(ctx, user.New("Other", "ann@example.com", "hash"))
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	pub, err := repo.GetPublicByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", pub.Email)

	_, err = repo.GetPublicByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = repo.GetPublicByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestNotesRepo(t *testing.T) {
	pool := testPool(t)
	users := NewUsersRepo(pool, nil)
	repo := NewNotesRepo(pool, nil)
	ctx := context.Background()

	owner := seedUser(t, users, "owner@example.com")
	other := seedUser(t, users, "other@example.com")

	first, err := repo.Create(ctx, note.NewFromCreateRequest(owner.ID, note.CreateNoteRequest{Title: "a", Content: "x"}))
	require.NoError(t, err)
	second, err := repo.Create(ctx, note.NewFromCreateRequest(owner.ID, note.CreateNoteRequest{Title: "b", Content: "y"}))
	require.NoError(t, err)
	_, err = repo.Create(ctx, note.NewFromCreateRequest(other.ID, note.CreateNoteRequest{Title: "c", Content: "z"}))
	require.NoError(t, err)

	first.Title = "a2"
	first.IsPinned = true
	updated, err := repo.Update(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "a2", updated.Title)
	assert.True(t, updated.IsPinned)

	list, err := repo.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	foreign := second
	foreign.OwnerID = other.ID
	_, err = repo.Update(ctx, foreign)
	assert.ErrorIs(t, err, note.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, second.ID, other.ID), note.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, second.ID, owner.ID))

	_, err = repo.GetByID(ctx, second.ID)
	assert.ErrorIs(t, err, note.ErrNotFound)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, note.ErrInvalidID)

	empty, err := repo.ListByOwner(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
