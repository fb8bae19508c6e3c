package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/studyhub/studyhub-server/pkg/errors"
	"github.com/studyhub/studyhub-server/pkg/response"
	"github.com/studyhub/studyhub-server/pkg/validator"
)

const maxListLimit = 200

// Messages keyed by validator tag. %[1]s is the field, %[2]s the tag parameter.
var validationMessages = map[string]string{
	"required": "%[1]s is required",
	"notblank": "%[1]s must not be blank",
	"email":    "%[1]s must be a valid email address",
	"url":      "%[1]s must be an absolute URL",
	"min":      "%[1]s must be at least %[2]s characters",
	"max":      "%[1]s must be at most %[2]s characters",
	"oneof":    "%[1]s must be one of: %[2]s",
}

// bindJSON decodes and validates the request body into dest, writing a 400
// response and returning false when either step fails.
func bindJSON[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if err := validator.ValidateStruct(dest); err != nil {
		response.Error(c, apperrors.NewBadRequest(describeValidation(err)))
		return false
	}
	return true
}

func describeValidation(err error) string {
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return "invalid request payload"
	}

	messages := make([]string, len(failures))
	for i, failure := range failures {
		field := strings.ToLower(strings.ReplaceAll(failure.Field, "_", " "))
		if field == "" {
			field = "field"
		}
		if tmpl, ok := validationMessages[failure.Tag]; ok {
			messages[i] = fmt.Sprintf(tmpl, field, failure.Param)
			continue
		}
		messages[i] = fmt.Sprintf("%s is invalid (%s)", field, failure.Tag)
	}
	return strings.Join(messages, "; ")
}

// listLimit reads ?limit=, returning 0 (service default) for missing or
// malformed values and capping large ones.
func listLimit(c *gin.Context) int {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return min(limit, maxListLimit)
}
