package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindsMatchSentinels(t *testing.T) {
	assert.True(t, IsValidation(Validation("amount", "must be at least 1")))
	assert.True(t, IsNotFound(NotFound("recipe")))
	assert.True(t, IsConflict(Conflict("already added")))
	assert.True(t, IsUnauthorized(Unauthorized("no token")))
	assert.True(t, IsUnauthorized(Forbidden("not the author")))
	assert.False(t, IsNotFound(Conflict("already added")))

	wrapped := fmt.Errorf("favorite: %w", NotFound("recipe"))
	assert.True(t, IsNotFound(wrapped))
	e, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.StatusCode())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "cooking_time: must be at least 1", Validation("cooking_time", "must be at least 1").Error())
	assert.Equal(t, "tag not found", NotFound("tag").Error())
}

func TestFromDB(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"translated duplicate", gorm.ErrDuplicatedKey, ErrConflict},
		{"sqlite unique", errors.New("UNIQUE constraint failed: favorites.user_id, favorites.recipe_id"), ErrConflict},
		{"postgres unique", errors.New(`ERROR: duplicate key value violates unique constraint "idx_favorite"`), ErrConflict},
		{"sqlite fk", errors.New("FOREIGN KEY constraint failed"), ErrConflict},
		{"check", errors.New("CHECK constraint failed: chk_follows_not_self"), ErrValidation},
		{"other", errors.New("connection reset"), ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDB(tt.err, "favorite")
			assert.ErrorIs(t, got, tt.want)
		})
	}

	assert.NoError(t, FromDB(nil, "favorite"))
	original := Validation("name", "required")
	assert.Same(t, original, FromDB(original, "recipe"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: follows.follower_id")))
	assert.False(t, IsUniqueViolation(errors.New("FOREIGN KEY constraint failed")))
}
