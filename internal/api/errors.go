package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/apperror"
	"github.com/pageza/foodgram/backend/internal/logging"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report json names instead of Go field names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusBadRequest, "conflict"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError maps a service error to its status code and JSON body.
// Unexpected errors are logged and answered with a generic 500.
func writeError(c *gin.Context, err error) {
	status, kind := statusFor(err)
	resp := ErrorResponse{Error: kind, Message: err.Error()}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Fields = appErr.Fields
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logging.FromContext(c.Request.Context(), logrus.StandardLogger()).WithError(err).Error("request failed")
		resp.Message = "internal server error"
	}
	c.AbortWithStatusJSON(status, resp)
}

// topField reduces "ingredients[0].amount" or "ingredients.0.amount" to
// "ingredients".
func topField(path string) string {
	if i := strings.IndexAny(path, ".["); i >= 0 {
		return path[:i]
	}
	return path
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "enter a valid email address"
	default:
		return "invalid value"
	}
}

// bindJSON decodes the body into dst and turns binding failures into
// validation errors keyed by top-level request field.
func bindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := apperror.FieldErrors{}
		for _, fe := range verrs {
			ns := fe.Namespace()
			if _, rest, ok := strings.Cut(ns, "."); ok {
				ns = rest
			}
			fields.Add(topField(ns), validationMessage(fe))
		}
		return fields.Err()
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperror.ValidationFailed(topField(typeErr.Field), fmt.Sprintf("expected %s", typeErr.Type.String()))
	}

	if errors.Is(err, io.EOF) {
		return apperror.ValidationFailed("body", "request body is empty")
	}
	return apperror.ValidationFailed("body", "malformed JSON")
}
