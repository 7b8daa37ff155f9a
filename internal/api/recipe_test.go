package api

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bigbrotherx/foodgram/backend/internal/middleware"
	"github.com/Bigbrotherx/foodgram/backend/internal/models"
	"github.com/Bigbrotherx/foodgram/backend/internal/testhelpers"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

func recipeBody(tags []uint, lines ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":         "Borscht",
		"text":         "Boil the beets",
		"cooking_time": 90,
		"image":        "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes),
		"tags":         tags,
		"ingredients":  lines,
	}
}

func TestCreateRecipeJSON(t *testing.T) {
	a := setupTestAPI(t)
	_, token := a.CreateTestUserAndToken(t, "chef")
	soup := testhelpers.CreateTag(t, a.db, "soup")
	beet := testhelpers.CreateIngredient(t, a.db, "beet", "g")

	body := recipeBody([]uint{soup.ID}, map[string]interface{}{"id": beet.ID, "amount": 300})
	w := a.PerformRequestWithToken(http.MethodPost, "/api/recipes/", body, token)
	requireStatus(t, w, http.StatusCreated)

	recipe := decode[types.Recipe](t, w)
	assert.Equal(t, "Borscht", recipe.Name)
	assert.Equal(t, "chef", recipe.Author.Username)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "soup", recipe.Tags[0].Slug)
	require.Len(t, recipe.Ingredients, 1)
	assert.Equal(t, 300, recipe.Ingredients[0].Amount)
	assert.True(t, strings.HasPrefix(recipe.Image, "/media/recipes/"), recipe.Image)
	assert.True(t, strings.HasSuffix(recipe.Image, ".png"), recipe.Image)

	w = a.PerformRequestWithToken(http.MethodPost, "/api/recipes/", body, "")
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestCreateRecipeValidation(t *testing.T) {
	a := setupTestAPI(t)
	_, token := a.CreateTestUserAndToken(t, "chef")
	soup := testhelpers.CreateTag(t, a.db, "soup")
	beet := testhelpers.CreateIngredient(t, a.db, "beet", "g")

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{
			name:  "unknown ingredient",
			body:  recipeBody([]uint{soup.ID}, map[string]interface{}{"id": 999, "amount": 1}),
			field: "ingredients",
		},
		{
			name:  "zero amount",
			body:  recipeBody([]uint{soup.ID}, map[string]interface{}{"id": beet.ID, "amount": 0}),
			field: "amount",
		},
		{
			name:  "no tags",
			body:  recipeBody([]uint{}, map[string]interface{}{"id": beet.ID, "amount": 1}),
			field: "tags",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.PerformRequestWithToken(http.MethodPost, "/api/recipes/", tt.body, token)
			requireStatus(t, w, http.StatusBadRequest)
			assert.Equal(t, tt.field, decode[middleware.ErrorResponse](t, w).Field)
		})
	}

	body := recipeBody([]uint{soup.ID}, map[string]interface{}{"id": beet.ID, "amount": 1})
	body["image"] = "data:image/png," + base64.StdEncoding.EncodeToString(pngBytes)
	w := a.PerformRequestWithToken(http.MethodPost, "/api/recipes/", body, token)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "image", decode[middleware.ErrorResponse](t, w).Field)

	var count int64
	require.NoError(t, a.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRecipeMultipart(t *testing.T) {
	a := setupTestAPI(t)
	_, token := a.CreateTestUserAndToken(t, "chef")
	soup := testhelpers.CreateTag(t, a.db, "soup")
	hot := testhelpers.CreateTag(t, a.db, "hot")
	beet := testhelpers.CreateIngredient(t, a.db, "beet", "g")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Borscht"))
	require.NoError(t, mw.WriteField("text", "Boil the beets"))
	require.NoError(t, mw.WriteField("cooking_time", "45"))
	require.NoError(t, mw.WriteField("tags", fmt.Sprint(soup.ID)))
	require.NoError(t, mw.WriteField("tags", fmt.Sprint(hot.ID)))
	require.NoError(t, mw.WriteField("ingredients", fmt.Sprintf(`[{"id":%d,"amount":2}]`, beet.ID)))
	part, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Token "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	requireStatus(t, w, http.StatusCreated)
	recipe := decode[types.Recipe](t, w)
	assert.Equal(t, 45, recipe.CookingTime)
	assert.Len(t, recipe.Tags, 2)
	assert.True(t, strings.HasSuffix(recipe.Image, ".png"), recipe.Image)
}

func TestUpdateAndDeleteRecipe(t *testing.T) {
	a := setupTestAPI(t)
	author, token := a.CreateTestUserAndToken(t, "chef")
	_, otherToken := a.CreateTestUserAndToken(t, "intruder")
	soup := testhelpers.CreateTag(t, a.db, "soup")
	hot := testhelpers.CreateTag(t, a.db, "hot")
	beet := testhelpers.CreateIngredient(t, a.db, "beet", "g")
	recipe := testhelpers.CreateRecipe(t, a.db, author, "Borscht", []*models.Tag{soup},
		testhelpers.Line{Ingredient: beet, Amount: 100})
	path := fmt.Sprintf("/api/recipes/%d/", recipe.ID)

	patch := map[string]interface{}{"name": "Cold borscht", "tags": []uint{hot.ID}}
	w := a.PerformRequestWithToken(http.MethodPatch, path, patch, otherToken)
	requireStatus(t, w, http.StatusForbidden)

	w = a.PerformRequestWithToken(http.MethodPatch, path, patch, token)
	requireStatus(t, w, http.StatusOK)
	updated := decode[types.Recipe](t, w)
	assert.Equal(t, "Cold borscht", updated.Name)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "hot", updated.Tags[0].Slug)
	require.Len(t, updated.Ingredients, 1, "absent ingredients keep the stored lines")

	w = a.PerformRequestWithToken(http.MethodDelete, path, nil, otherToken)
	requireStatus(t, w, http.StatusForbidden)

	w = a.PerformRequestWithToken(http.MethodDelete, path, nil, token)
	requireStatus(t, w, http.StatusNoContent)

	w = a.PerformRequestWithToken(http.MethodGet, path, nil, "")
	requireStatus(t, w, http.StatusNotFound)
}

func TestListRecipes(t *testing.T) {
	a := setupTestAPI(t)
	author, token := a.CreateTestUserAndToken(t, "chef")
	other := testhelpers.CreateUser(t, a.db, "other")
	soup := testhelpers.CreateTag(t, a.db, "soup")
	for i := 0; i < 7; i++ {
		testhelpers.CreateRecipe(t, a.db, author, fmt.Sprintf("Dish %d", i), nil)
	}
	tagged := testhelpers.CreateRecipe(t, a.db, other, "Tagged", []*models.Tag{soup})

	w := a.PerformRequestWithToken(http.MethodGet, "/api/recipes/", nil, "")
	requireStatus(t, w, http.StatusOK)
	page := decode[types.Page[types.Recipe]](t, w)
	assert.Equal(t, int64(8), page.Count)
	assert.Len(t, page.Results, 6)
	require.NotNil(t, page.Next)
	assert.Equal(t, "http://example.com/api/recipes/?page=2", *page.Next)
	assert.Nil(t, page.Previous)

	w = a.PerformRequestWithToken(http.MethodGet, "/api/recipes/?page=2", nil, "")
	requireStatus(t, w, http.StatusOK)
	page = decode[types.Page[types.Recipe]](t, w)
	assert.Len(t, page.Results, 2)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://example.com/api/recipes/", *page.Previous)

	w = a.PerformRequestWithToken(http.MethodGet, "/api/recipes/?page=3", nil, "")
	requireStatus(t, w, http.StatusNotFound)

	w = a.PerformRequestWithToken(http.MethodGet, "/api/recipes/?tags=soup", nil, "")
	requireStatus(t, w, http.StatusOK)
	page = decode[types.Page[types.Recipe]](t, w)
	require.Len(t, page.Results, 1)
	assert.Equal(t, tagged.ID, page.Results[0].ID)

	w = a.PerformRequestWithToken(http.MethodGet, fmt.Sprintf("/api/recipes/?author=%d&limit=100", author.ID), nil, "")
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, int64(7), decode[types.Page[types.Recipe]](t, w).Count)

	w = a.PerformRequestWithToken(http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite/", tagged.ID), nil, token)
	requireStatus(t, w, http.StatusCreated)

	w = a.PerformRequestWithToken(http.MethodGet, "/api/recipes/?is_favorited=1", nil, token)
	requireStatus(t, w, http.StatusOK)
	page = decode[types.Page[types.Recipe]](t, w)
	require.Len(t, page.Results, 1)
	assert.True(t, page.Results[0].IsFavorited)

	w = a.PerformRequestWithToken(http.MethodGet, "/api/recipes/?is_favorited=1", nil, "")
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, int64(8), decode[types.Page[types.Recipe]](t, w).Count)
}

func TestFavoriteEndpoints(t *testing.T) {
	a := setupTestAPI(t)
	_, token := a.CreateTestUserAndToken(t, "fan")
	author := testhelpers.CreateUser(t, a.db, "chef")
	recipe := testhelpers.CreateRecipe(t, a.db, author, "Pie", nil)
	path := fmt.Sprintf("/api/recipes/%d/favorite/", recipe.ID)

	w := a.PerformRequestWithToken(http.MethodPost, path, nil, token)
	requireStatus(t, w, http.StatusCreated)
	short := decode[types.RecipeShort](t, w)
	assert.Equal(t, recipe.ID, short.ID)
	assert.Equal(t, "Pie", short.Name)

	w = a.PerformRequestWithToken(http.MethodPost, path, nil, token)
	requireStatus(t, w, http.StatusConflict)

	w = a.PerformRequestWithToken(http.MethodDelete, path, nil, token)
	requireStatus(t, w, http.StatusNoContent)

	w = a.PerformRequestWithToken(http.MethodDelete, path, nil, token)
	requireStatus(t, w, http.StatusNotFound)

	w = a.PerformRequestWithToken(http.MethodPost, "/api/recipes/9999/favorite/", nil, token)
	requireStatus(t, w, http.StatusNotFound)
}

func TestDownloadShoppingCart(t *testing.T) {
	a := setupTestAPI(t)
	_, token := a.CreateTestUserAndToken(t, "cook")
	author := testhelpers.CreateUser(t, a.db, "chef")
	salt := testhelpers.CreateIngredient(t, a.db, "Salt", "g")
	egg := testhelpers.CreateIngredient(t, a.db, "Egg", "pcs")
	omelette := testhelpers.CreateRecipe(t, a.db, author, "Omelette", nil,
		testhelpers.Line{Ingredient: egg, Amount: 3}, testhelpers.Line{Ingredient: salt, Amount: 2})
	soup := testhelpers.CreateRecipe(t, a.db, author, "Soup", nil,
		testhelpers.Line{Ingredient: salt, Amount: 5})

	w := a.PerformRequestWithToken(http.MethodGet, "/api/recipes/download_shopping_cart/", nil, token)
	requireStatus(t, w, http.StatusOK)
	assert.Empty(t, w.Body.String())

	for _, r := range []*models.Recipe{omelette, soup} {
		w = a.PerformRequestWithToken(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart/", r.ID), nil, token)
		requireStatus(t, w, http.StatusCreated)
	}

	w = a.PerformRequestWithToken(http.MethodGet, "/api/recipes/download_shopping_cart/", nil, token)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "Egg(pcs) - 3\nSalt(g) - 7", w.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="shopping_list.txt"`, w.Header().Get("Content-Disposition"))

	w = a.PerformRequestWithToken(http.MethodGet, fmt.Sprintf("/api/recipes/%d/", soup.ID), nil, token)
	requireStatus(t, w, http.StatusOK)
	assert.True(t, decode[types.Recipe](t, w).IsInShoppingCart)

	w = a.PerformRequestWithToken(http.MethodGet, "/api/recipes/download_shopping_cart/", nil, "")
	requireStatus(t, w, http.StatusUnauthorized)
}
