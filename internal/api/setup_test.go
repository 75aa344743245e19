package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/render"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

// testEnv is a router wired to real services on an in-memory database
type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logging.Discard()

	db := testhelpers.SetupTestDatabase(t)
	store, err := storage.NewLocalImageStore(t.TempDir(), "http://media.test/media/")
	require.NoError(t, err)
	revoker, err := service.NewMemoryRevoker(128)
	require.NoError(t, err)
	tags, err := service.NewTagService(db, 64)
	require.NoError(t, err)

	auth := service.NewAuthService(db, "test-secret", time.Hour, revoker, log)
	recipes := service.NewRecipeService(db, service.NewImageService(store, log), log)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	RegisterRoutes(router, Dependencies{
		DB:                  db,
		Auth:                auth,
		Recipes:             recipes,
		Memberships:         service.NewMembershipService(db, log),
		ShoppingList:        service.NewShoppingListService(db, render.TextRenderer{}, log),
		Tags:                tags,
		Ingredients:         service.NewIngredientService(db),
		Users:               service.NewUserService(db, log),
		CreationLimiter:     middleware.NewLocalLimiter(middleware.RecipeCreationConfig()),
		ModificationLimiter: middleware.NewLocalLimiter(middleware.RecipeModificationConfig()),
	})

	return &testEnv{router: router, db: db, auth: auth}
}

// userWithToken creates a user and signs a token for it.
func (e *testEnv) userWithToken(t *testing.T, username string) (models.User, string) {
	t.Helper()
	user := testhelpers.CreateUser(t, e.db, username)
	token, err := e.auth.GenerateToken(&user)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// assertStatus fails with the response body for context.
func assertStatus(t *testing.T, want int, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, w.Code, w.Body.String())
}

