package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/apperror"
)

// Capability decides which requests may reach a handler.
type Capability int

const (
	// ReadOnly allows safe methods only.
	ReadOnly Capability = iota
	// AuthenticatedOnly requires an identity for every method.
	AuthenticatedOnly
	// AuthorOrReadOnly allows safe methods to anyone and writes to the
	// owner of the addressed object.
	AuthorOrReadOnly
)

// OwnerResolver returns the owner of the object addressed by id.
type OwnerResolver func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Authorize enforces a capability. For AuthorOrReadOnly the object id is read
// from the "id" path parameter; a malformed or unknown id is a 404.
func Authorize(capability Capability, owner OwnerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch capability {
		case ReadOnly:
			if !safeMethod(c.Request.Method) {
				abort(c, http.StatusForbidden, "forbidden", "you do not have permission to perform this action")
				return
			}

		case AuthenticatedOnly:
			if UserID(c) == nil {
				abort(c, http.StatusUnauthorized, "unauthorized", "authentication credentials were not provided")
				return
			}

		case AuthorOrReadOnly:
			if safeMethod(c.Request.Method) {
				break
			}
			viewer := UserID(c)
			if viewer == nil {
				abort(c, http.StatusUnauthorized, "unauthorized", "authentication credentials were not provided")
				return
			}
			id, err := uuid.Parse(c.Param("id"))
			if err != nil {
				abort(c, http.StatusNotFound, "not_found", "not found")
				return
			}
			ownerID, err := owner(c.Request.Context(), id)
			if errors.Is(err, apperror.ErrNotFound) {
				abort(c, http.StatusNotFound, "not_found", err.Error())
				return
			}
			if err != nil {
				_ = c.Error(err)
				abort(c, http.StatusInternalServerError, "internal", "internal server error")
				return
			}
			if ownerID != *viewer {
				abort(c, http.StatusForbidden, "forbidden", "you do not have permission to perform this action")
				return
			}
		}
		c.Next()
	}
}
