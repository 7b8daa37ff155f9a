package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/testhelpers"
)

func TestListProfiles(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := newTestServices(t, db)

	ann := testhelpers.CreateUser(t, db, "ann")
	ben := testhelpers.CreateUser(t, db, "ben")
	cat := testhelpers.CreateUser(t, db, "cat")

	_, err := svc.members.Follow(bg, ann.ID, cat.ID, 0)
	require.NoError(t, err)

	profiles, count, err := svc.users.ListProfiles(bg, ann.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	require.Len(t, profiles, 2)
	assert.Equal(t, ben.ID, profiles[0].ID)
	assert.False(t, profiles[0].IsSubscribed)
	assert.Equal(t, cat.ID, profiles[1].ID)
	assert.True(t, profiles[1].IsSubscribed)

	anon, _, err := svc.users.ListProfiles(bg, Anonymous, 10, 0)
	require.NoError(t, err)
	require.Len(t, anon, 3)
	for _, p := range anon {
		assert.False(t, p.IsSubscribed)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := newTestServices(t, db)

	_, err := svc.users.GetProfile(bg, 31337, Anonymous)
	assert.True(t, errs.IsNotFound(err))
}

func TestSubscriptions(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := newTestServices(t, db)

	reader := testhelpers.CreateUser(t, db, "reader")
	first := testhelpers.CreateUser(t, db, "first")
	second := testhelpers.CreateUser(t, db, "second")
	testhelpers.CreateUser(t, db, "stranger")

	testhelpers.CreateRecipe(t, db, first, "Soup", nil)
	testhelpers.CreateRecipe(t, db, second, "Stew", nil)
	testhelpers.CreateRecipe(t, db, second, "Pie", nil)

	_, err := svc.members.Follow(bg, reader.ID, first.ID, 0)
	require.NoError(t, err)
	_, err = svc.members.Follow(bg, reader.ID, second.ID, 0)
	require.NoError(t, err)

	subs, count, err := svc.users.Subscriptions(bg, reader.ID, 10, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	require.Len(t, subs, 2)

	assert.Equal(t, second.ID, subs[0].ID)
	assert.True(t, subs[0].IsSubscribed)
	assert.Equal(t, int64(2), subs[0].RecipesCount)
	assert.Len(t, subs[0].Recipes, 1)

	assert.Equal(t, first.ID, subs[1].ID)
	assert.Equal(t, int64(1), subs[1].RecipesCount)

	page, _, err := svc.users.Subscriptions(bg, reader.ID, 1, 1, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)

	none, count, err := svc.users.Subscriptions(bg, first.ID, 10, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, none)
}
