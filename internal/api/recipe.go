package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/middleware"
	"github.com/Bigbrotherx/foodgram/backend/internal/service"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

const shoppingListFilename = "shopping_list.txt"

// RecipeHandler serves recipes, favorites and the shopping cart
type RecipeHandler struct {
	auth      *service.AuthService
	recipes   *service.RecipeService
	members   *service.MembershipService
	shopping  *service.ShoppingService
	limiter   *middleware.RateLimiter
	pageSize  int
	maxUpload int64
}

func NewRecipeHandler(
	auth *service.AuthService,
	recipes *service.RecipeService,
	members *service.MembershipService,
	shopping *service.ShoppingService,
	limiter *middleware.RateLimiter,
	pageSize int,
	maxUpload int64,
) *RecipeHandler {
	return &RecipeHandler{
		auth:      auth,
		recipes:   recipes,
		members:   members,
		shopping:  shopping,
		limiter:   limiter,
		pageSize:  pageSize,
		maxUpload: maxUpload,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	optional := middleware.OptionalAuth(h.auth)
	required := middleware.RequireAuth(h.auth)

	recipes := router.Group("/recipes")
	{
		recipes.GET("/", optional, h.ListRecipes)
		recipes.POST("/", required, h.limiter.RateLimitMiddleware(), h.CreateRecipe)
		recipes.GET("/download_shopping_cart/", required, h.DownloadShoppingCart)
		recipes.GET("/:id/", optional, h.GetRecipe)
		recipes.PATCH("/:id/", required, h.UpdateRecipe)
		recipes.DELETE("/:id/", required, h.DeleteRecipe)
		recipes.POST("/:id/favorite/", required, h.AddFavorite)
		recipes.DELETE("/:id/favorite/", required, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart/", required, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart/", required, h.RemoveFromCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter, err := recipeFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	w, err := pageWindow(c, h.pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	filter.Limit, filter.Offset = w.Limit, w.Offset

	recipes, count, err := h.recipes.ListRecipes(c.Request.Context(), filter, middleware.ViewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := newPage(c, w, count, recipes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := pathID(c, "id", "recipe")
	if err != nil {
		respondError(c, err)
		return
	}
	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id, middleware.ViewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	req, upload, err := h.readRecipe(c)
	if err != nil {
		respondError(c, err)
		return
	}
	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), middleware.ViewerID(c), req, upload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, err := pathID(c, "id", "recipe")
	if err != nil {
		respondError(c, err)
		return
	}
	req, upload, err := h.readRecipe(c)
	if err != nil {
		respondError(c, err)
		return
	}
	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), id, middleware.ViewerID(c), req, upload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := pathID(c, "id", "recipe")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.recipes.DeleteRecipe(c.Request.Context(), id, middleware.ViewerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addMembership(c, h.members.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeMembership(c, h.members.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addMembership(c, h.members.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeMembership(c, h.members.RemoveFromCart)
}

type addFunc func(ctx context.Context, userID, recipeID uint) (*types.RecipeShort, error)

type removeFunc func(ctx context.Context, userID, recipeID uint) error

func (h *RecipeHandler) addMembership(c *gin.Context, add addFunc) {
	id, err := pathID(c, "id", "recipe")
	if err != nil {
		respondError(c, err)
		return
	}
	short, err := add(c.Request.Context(), middleware.ViewerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, short)
}

func (h *RecipeHandler) removeMembership(c *gin.Context, remove removeFunc) {
	id, err := pathID(c, "id", "recipe")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := remove(c.Request.Context(), middleware.ViewerID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart sends the aggregated shopping list as a text attachment
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	list, err := h.shopping.GenerateShoppingList(c.Request.Context(), middleware.ViewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(list))
}

func recipeFilter(c *gin.Context) (service.RecipeFilter, error) {
	var filter service.RecipeFilter
	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, errs.Validation("author", "must be a user id")
		}
		author := uint(id)
		filter.AuthorID = &author
	}
	filter.TagSlugs = c.QueryArray("tags")
	filter.IsFavorited = queryFlag(c, "is_favorited")
	filter.IsInShoppingCart = queryFlag(c, "is_in_shopping_cart")
	return filter, nil
}

func queryFlag(c *gin.Context, name string) bool {
	switch strings.ToLower(c.Query(name)) {
	case "1", "true":
		return true
	}
	return false
}

// readRecipe decodes a JSON or multipart recipe body. A multipart file
// field "image" is returned as the upload.
func (h *RecipeHandler) readRecipe(c *gin.Context) (*types.RecipeRequest, *service.Image, error) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var req types.RecipeRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, errs.Validation("body", "request body is too large")
		}
		return nil, nil, errs.Validation("body", "invalid multipart body")
	}

	req := &types.RecipeRequest{}
	if v, ok := form.Value["name"]; ok && len(v) > 0 {
		req.Name = &v[0]
	}
	if v, ok := form.Value["text"]; ok && len(v) > 0 {
		req.Text = &v[0]
	}
	if v, ok := form.Value["cooking_time"]; ok && len(v) > 0 {
		n, err := strconv.Atoi(strings.TrimSpace(v[0]))
		if err != nil {
			return nil, nil, errs.Validation("cooking_time", "must be an integer")
		}
		req.CookingTime = &n
	}
	if v, ok := form.Value["tags"]; ok {
		tags, err := formTags(v)
		if err != nil {
			return nil, nil, err
		}
		req.Tags = &tags
	}
	if v, ok := form.Value["ingredients"]; ok && len(v) > 0 {
		var lines []types.IngredientAmount
		if err := json.Unmarshal([]byte(v[0]), &lines); err != nil {
			return nil, nil, errs.Validation("ingredients", "must be a JSON list of {id, amount}")
		}
		req.Ingredients = &lines
	}
	if v, ok := form.Value["image"]; ok && len(v) > 0 {
		req.Image = &v[0]
	}

	files := form.File["image"]
	if len(files) == 0 {
		return req, nil, nil
	}
	f, err := files[0].Open()
	if err != nil {
		return nil, nil, errs.Validation("image", "cannot read upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, errs.Validation("image", "cannot read upload")
	}
	upload, err := service.UploadedImage(data, files[0].Filename)
	if err != nil {
		return nil, nil, err
	}
	return req, upload, nil
}

// formTags accepts repeated tag fields or one JSON list
func formTags(values []string) ([]uint, error) {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var tags []uint
		if err := json.Unmarshal([]byte(values[0]), &tags); err != nil {
			return nil, errs.Validation("tags", "must be a list of tag ids")
		}
		return tags, nil
	}
	tags := make([]uint, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, errs.Validation("tags", "must be a list of tag ids")
		}
		tags = append(tags, uint(id))
	}
	return tags, nil
}
