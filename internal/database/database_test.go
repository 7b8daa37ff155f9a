package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Bigbrotherx/foodgram/backend/config"
	"github.com/Bigbrotherx/foodgram/backend/internal/database"
	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/models"
	"github.com/Bigbrotherx/foodgram/backend/internal/testhelpers"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "foodgram.db")}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	// a second run is a no-op
	require.NoError(t, database.Migrate(db))
	assert.NoError(t, database.HealthCheck(context.Background(), db))

	for _, model := range models.All() {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)

	err := db.Omit(clause.Associations).Create(&models.Favorite{UserID: 42, RecipeID: 42}).Error
	require.Error(t, err)
	assert.True(t, errs.IsConflict(errs.FromDB(err, "favorite")), "got %v", err)
}

func TestWithTxRollsBack(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	boom := errors.New("boom")

	err := database.WithTx(context.Background(), db, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Tag{Name: "Lunch", Color: "#00FF00", Slug: "lunch"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostgresMigrate(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)

	user := testhelpers.CreateUser(t, db, "pg")
	err := db.Omit(clause.Associations).Create(&models.Follow{FollowerID: user.ID, FolloweeID: user.ID}).Error
	require.Error(t, err)
	assert.True(t, errs.IsValidation(errs.FromDB(err, "follow")), "got %v", err)
}
