package handler

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/wishlist-service/internal/problem"
	"github.com/wishlist-service/internal/service"
)

var setupOnce sync.Once

// SetupValidator registers the custom tags on gin's validator and makes
// field errors use json names. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("noscript", func(fl validator.FieldLevel) bool {
			return !service.ContainsScript(fl.Field().String())
		})
	})
}

// bindJSON decodes the request body into obj. Every failure is a
// VALIDATION_ERROR.
func bindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}
	return bindError(err)
}

// bindOptionalJSON is bindJSON for routes whose body may be absent, whether
// the request declares a zero length or streams an empty chunked body.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	err := c.ShouldBindJSON(obj)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return bindError(err)
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return problem.Validation(fields, "request validation failed")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return problem.Validation(map[string]string{typeErr.Field: "has the wrong type"}, "request validation failed")
	}
	if errors.Is(err, io.EOF) {
		return problem.Validation(map[string]string{"body": "request body is empty"}, "request body is empty")
	}
	return problem.Validation(map[string]string{"body": "malformed JSON"}, "malformed request body")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "noscript":
		return fe.Field() + " must not contain script tags"
	default:
		return fe.Field() + " is invalid"
	}
}

// pathID parses a positive numeric path parameter
func pathID(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, problem.Validation(map[string]string{name: "must be a positive integer"}, "invalid %s in path", name)
	}
	return id, nil
}
