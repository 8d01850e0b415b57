package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heymemory/server/internal/db"
	"github.com/heymemory/server/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

func createTestUser(t *testing.T, database *sqlx.DB) *model.User {
	t.Helper()

	users := NewUserRepository(database)
	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "not-a-real-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.Create(user))
	return user
}

func TestConsumeTokenMarksUsed(t *testing.T) {
	database := newTestDB(t)
	tokens := NewTokenRepository(database)
	user := createTestUser(t, database)

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeEmailVerify,
		Token:     "tok-consume",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, tokens.Create(token))

	consumed, err := tokens.ConsumeToken("tok-consume")
	require.NoError(t, err)
	assert.Equal(t, user.ID, consumed.UserID)
	require.NotNil(t, consumed.UsedAt)

	// Replay is indistinguishable from an unknown token
	_, err = tokens.ConsumeToken("tok-consume")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestConsumeTokenRejectsExpired(t *testing.T) {
	database := newTestDB(t)
	tokens := NewTokenRepository(database)
	user := createTestUser(t, database)

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeEmailVerify,
		Token:     "tok-expired",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, tokens.Create(token))

	_, err := tokens.ConsumeToken("tok-expired")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestConsumeTokenUnknown(t *testing.T) {
	database := newTestDB(t)
	tokens := NewTokenRepository(database)

	_, err := tokens.ConsumeToken("never-issued")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestDeleteByUserAndType(t *testing.T) {
	database := newTestDB(t)
	tokens := NewTokenRepository(database)
	user := createTestUser(t, database)

	verify := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeEmailVerify,
		Token:     "tok-verify",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	change := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeEmailChange,
		Token:     "tok-change",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, tokens.Create(verify))
	require.NoError(t, tokens.Create(change))

	require.NoError(t, tokens.DeleteByUserAndType(user.ID, model.TokenTypeEmailVerify))

	_, err := tokens.ConsumeToken("tok-verify")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// Tokens of other types are untouched
	_, err = tokens.ConsumeToken("tok-change")
	assert.NoError(t, err)
}

func TestSessionExpiryIsEnforcedOnRead(t *testing.T) {
	database := newTestDB(t)
	sessions := NewSessionRepository(database)
	user := createTestUser(t, database)

	expired := &model.Session{
		ID:        "sess-expired",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, sessions.Create(expired))

	_, err := sessions.ByID("sess-expired")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	live := &model.Session{
		ID:        "sess-live",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, sessions.Create(live))

	got, err := sessions.ByID("sess-live")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
}

func TestDeleteExpiredSessions(t *testing.T) {
	database := newTestDB(t)
	sessions := NewSessionRepository(database)
	user := createTestUser(t, database)

	require.NoError(t, sessions.Create(&model.Session{
		ID: "old", UserID: user.ID, ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, sessions.Create(&model.Session{
		ID: "new", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour),
	}))

	deleted, err := sessions.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
