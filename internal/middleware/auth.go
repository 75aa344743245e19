package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	userIDKey   = "user_id"
	usernameKey = "username"
	claimsKey   = "claims"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// bearerToken extracts the credential from "Bearer <jwt>" or "Token <jwt>".
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || token == "" {
		return "", false
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Authenticate resolves the caller's identity when an Authorization header is
// present. Requests without one continue anonymously; a malformed or invalid
// credential is rejected with 401.
func Authenticate(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid authorization header format")
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			logging.FromContext(c.Request.Context(), logrus.StandardLogger()).WithError(err).Debug("token rejected")
			abort(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(usernameKey, claims.Username)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "authentication credentials were not provided")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id, or nil for anonymous requests.
func UserID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(userIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

func Claims(c *gin.Context) *types.TokenClaims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*types.TokenClaims)
	return claims
}

func abort(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "message": message})
}
