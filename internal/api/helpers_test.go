package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Bigbrotherx/foodgram/backend/internal/middleware"
	"github.com/Bigbrotherx/foodgram/backend/internal/models"
	"github.com/Bigbrotherx/foodgram/backend/internal/service"
	"github.com/Bigbrotherx/foodgram/backend/internal/storage"
	"github.com/Bigbrotherx/foodgram/backend/internal/testhelpers"
)

// pngBytes is a 1x1 transparent PNG
var pngBytes, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

type testAPI struct {
	router *gin.Engine
	db     *gorm.DB
	svc    Services
}

func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLiteDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)
	tokens, err := service.NewMemoryTokenStore(128)
	require.NoError(t, err)

	svc := NewServices(db, service.NewImageService(store), tokens, "test-secret", time.Hour)
	router := gin.New()
	router.Use(middleware.Recovery())
	SetupAPI(router, svc, Options{PageSize: 6, MaxUploadBytes: 1 << 20})
	return &testAPI{router: router, db: db, svc: svc}
}

// CreateTestUserAndToken inserts a user and logs them in
func (a *testAPI) CreateTestUserAndToken(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user := testhelpers.CreateUser(t, a.db, username)
	token, err := a.svc.Auth.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

// PerformRequestWithToken sends body as JSON; an empty token sends no Authorization header
func (a *testAPI) PerformRequestWithToken(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
}
