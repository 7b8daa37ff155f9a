package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Bigbrotherx/foodgram/backend/internal/middleware"
	"github.com/Bigbrotherx/foodgram/backend/internal/service"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

// UserHandler serves registration, profiles and subscriptions
type UserHandler struct {
	auth     *service.AuthService
	users    *service.UserService
	members  *service.MembershipService
	pageSize int
}

func NewUserHandler(auth *service.AuthService, users *service.UserService, members *service.MembershipService, pageSize int) *UserHandler {
	return &UserHandler{auth: auth, users: users, members: members, pageSize: pageSize}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	optional := middleware.OptionalAuth(h.auth)
	required := middleware.RequireAuth(h.auth)

	users := router.Group("/users")
	{
		users.GET("/", optional, h.ListUsers)
		users.POST("/", h.Register)
		users.GET("/me/", required, h.Me)
		users.POST("/set_password/", required, h.SetPassword)
		users.GET("/subscriptions/", required, h.Subscriptions)
		users.GET("/:id/", optional, h.GetUser)
		users.POST("/:id/subscribe/", required, h.Subscribe)
		users.DELETE("/:id/subscribe/", required, h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	w := offsetWindow(c, h.pageSize)
	profiles, count, err := h.users.ListProfiles(c.Request.Context(), middleware.ViewerID(c), w.Limit, w.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := newPage(c, w, count, profiles)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.CreatedUser{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := pathID(c, "id", "user")
	if err != nil {
		respondError(c, err)
		return
	}
	profile, err := h.users.GetProfile(c.Request.Context(), id, middleware.ViewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) Me(c *gin.Context) {
	viewer := middleware.ViewerID(c)
	profile, err := h.users.GetProfile(c.Request.Context(), viewer, viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := h.auth.SetPassword(c.Request.Context(), middleware.ViewerID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	recipesLimit, err := queryInt(c, "recipes_limit", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	w := offsetWindow(c, h.pageSize)
	subs, count, err := h.users.Subscriptions(c.Request.Context(), middleware.ViewerID(c), w.Limit, w.Offset, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := newPage(c, w, count, subs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, err := pathID(c, "id", "user")
	if err != nil {
		respondError(c, err)
		return
	}
	recipesLimit, err := queryInt(c, "recipes_limit", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	sub, err := h.members.Follow(c.Request.Context(), middleware.ViewerID(c), authorID, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, err := pathID(c, "id", "user")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.members.Unfollow(c.Request.Context(), middleware.ViewerID(c), authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
