package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/testhelpers"
)

func TestSearchIngredients(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := NewCatalogService(db)

	testhelpers.CreateIngredient(t, db, "sugar", "g")
	testhelpers.CreateIngredient(t, db, "Sugar", "kg")
	testhelpers.CreateIngredient(t, db, "salt", "g")
	testhelpers.CreateIngredient(t, db, "brown sugar", "g")
	testhelpers.CreateIngredient(t, db, "su_per%", "pcs")

	tests := []struct {
		prefix string
		want   []string
	}{
		{"su", []string{"Sugar(kg)", "su_per%(pcs)", "sugar(g)"}},
		{"SUG", []string{"Sugar(kg)", "sugar(g)"}},
		{"su_", []string{"su_per%(pcs)"}},
		{"pepper", []string{}},
		{"", []string{"Sugar(kg)", "brown sugar(g)", "salt(g)", "su_per%(pcs)", "sugar(g)"}},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			found, err := svc.SearchIngredients(bg, tt.prefix)
			require.NoError(t, err)
			got := make([]string, 0, len(found))
			for _, i := range found {
				got = append(got, ShoppingKey(i.Name, i.MeasurementUnit))
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestDeleteIngredient(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := NewCatalogService(db)

	author := testhelpers.CreateUser(t, db, "chef")
	used := testhelpers.CreateIngredient(t, db, "Flour", "g")
	unused := testhelpers.CreateIngredient(t, db, "Saffron", "g")
	testhelpers.CreateRecipe(t, db, author, "Bread", nil, testhelpers.Line{Ingredient: used, Amount: 500})

	err := svc.DeleteIngredient(bg, used.ID)
	assert.True(t, errs.IsConflict(err), "got %v", err)
	_, err = svc.GetIngredient(bg, used.ID)
	assert.NoError(t, err)

	require.NoError(t, svc.DeleteIngredient(bg, unused.ID))
	_, err = svc.GetIngredient(bg, unused.ID)
	assert.True(t, errs.IsNotFound(err))

	err = svc.DeleteIngredient(bg, unused.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestLoadIngredients(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := NewCatalogService(db)

	seeds := []IngredientSeed{
		{Name: "Salt", MeasurementUnit: "g"},
		{Name: "Milk", MeasurementUnit: "ml"},
		{Name: "Salt", MeasurementUnit: "g"},
	}
	added, err := svc.LoadIngredients(bg, seeds)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = svc.LoadIngredients(bg, seeds)
	require.NoError(t, err)
	assert.Zero(t, added)

	_, err = svc.LoadIngredients(bg, []IngredientSeed{{Name: "Pepper"}})
	assert.True(t, errs.IsValidation(err))

	all, err := svc.SearchIngredients(bg, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTags(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := NewCatalogService(db)

	tag, err := svc.CreateTag(bg, TagSeed{Name: "Breakfast", Color: "#e26c2d", Slug: "breakfast"})
	require.NoError(t, err)
	assert.Equal(t, "#E26C2D", tag.Color)

	_, err = svc.CreateTag(bg, TagSeed{Name: "Breakfast again", Color: "#000000", Slug: "breakfast"})
	assert.True(t, errs.IsConflict(err), "got %v", err)

	_, err = svc.CreateTag(bg, TagSeed{Name: "Bad", Color: "red", Slug: "bad"})
	assert.True(t, errs.IsValidation(err))

	_, err = svc.CreateTag(bg, TagSeed{Name: "Bad", Color: "#000000", Slug: "no spaces"})
	assert.True(t, errs.IsValidation(err))

	added, err := svc.LoadTags(bg, []TagSeed{
		{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Dinner", Color: "#49B64E", Slug: "dinner"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	tags, err := svc.ListTags(bg)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Breakfast", tags[0].Name)
	assert.Equal(t, "Dinner", tags[1].Name)

	got, err := svc.GetTag(bg, tags[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "dinner", got.Slug)

	_, err = svc.GetTag(bg, 999)
	assert.True(t, errs.IsNotFound(err))
}
