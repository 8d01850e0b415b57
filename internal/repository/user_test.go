package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heymemory/server/internal/model"
)

func TestUserCreateDuplicateEmail(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)

	now := time.Now()
	first := &model.User{
		ID:           uuid.New().String(),
		Email:        "dup@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.Create(first))

	second := &model.User{
		ID:           uuid.New().String(),
		Email:        "dup@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	assert.ErrorIs(t, users.Create(second), ErrDuplicateEmail)
}

func TestUserUpdateDuplicateEmail(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)

	a := createTestUser(t, database)
	b := createTestUser(t, database)

	b.Email = a.Email
	assert.ErrorIs(t, users.Update(b), ErrDuplicateEmail)
}

func TestUserByEmail(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)

	user := createTestUser(t, database)

	got, err := users.ByEmail(user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = users.ByEmail("ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserDelete(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)

	user := createTestUser(t, database)
	require.NoError(t, users.Delete(user.ID))

	_, err := users.ByID(user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.ErrorIs(t, users.Delete(user.ID), ErrUserNotFound)
}
