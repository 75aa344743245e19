package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/apperror"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestAuthorize(t *testing.T) {
	author := uuid.New()
	other := uuid.New()
	recipeID := uuid.New()

	validator := new(mocks.MockAuthService)
	validator.On("ValidateToken", mock.Anything, "author").Return(&types.TokenClaims{UserID: author}, nil)
	validator.On("ValidateToken", mock.Anything, "other").Return(&types.TokenClaims{UserID: other}, nil)

	owner := func(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
		if id != recipeID {
			return uuid.Nil, apperror.NotFound("recipe", id.String())
		}
		return author, nil
	}

	r := gin.New()
	r.Use(middleware.Authenticate(validator))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.Any("/users/:id", middleware.Authorize(middleware.ReadOnly, nil), ok)
	r.Any("/private", middleware.Authorize(middleware.AuthenticatedOnly, nil), ok)
	r.Any("/recipes/:id", middleware.Authorize(middleware.AuthorOrReadOnly, owner), ok)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"read-only get", http.MethodGet, "/users/1", "", http.StatusOK},
		{"read-only put", http.MethodPut, "/users/1", "author", http.StatusForbidden},
		{"read-only delete", http.MethodDelete, "/users/1", "author", http.StatusForbidden},
		{"private anonymous", http.MethodGet, "/private", "", http.StatusUnauthorized},
		{"private authenticated", http.MethodGet, "/private", "other", http.StatusOK},
		{"recipe get anonymous", http.MethodGet, "/recipes/" + recipeID.String(), "", http.StatusOK},
		{"recipe patch anonymous", http.MethodPatch, "/recipes/" + recipeID.String(), "", http.StatusUnauthorized},
		{"recipe patch non-author", http.MethodPatch, "/recipes/" + recipeID.String(), "other", http.StatusForbidden},
		{"recipe delete non-author", http.MethodDelete, "/recipes/" + recipeID.String(), "other", http.StatusForbidden},
		{"recipe patch author", http.MethodPatch, "/recipes/" + recipeID.String(), "author", http.StatusOK},
		{"recipe unknown", http.MethodPatch, "/recipes/" + uuid.NewString(), "author", http.StatusNotFound},
		{"recipe malformed id", http.MethodDelete, "/recipes/abc", "author", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
