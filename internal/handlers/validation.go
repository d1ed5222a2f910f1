package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/errors"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
	appValidator "github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/validator"
)

const genericValidationMessage = "invalid request payload"

// validationMessages maps a validator tag to a client message. %[1]s is the
// field and %[2]s the tag parameter.
var validationMessages = map[string]string{
	"required": "%[1]s is required",
	"email":    "%[1]s must be a valid email address",
	"url":      "%[1]s must be a valid URL",
	"min":      "%[1]s must be at least %[2]s",
	"max":      "%[1]s must be at most %[2]s",
	"gte":      "%[1]s must be at least %[2]s",
	"lte":      "%[1]s must be at most %[2]s",
	"uuid4":    "%[1]s must be a valid UUID",
	"domain":   "%[1]s must be a bare domain such as example.com",
	"score":    "%[1]s must be between 0 and 100",
	"oneof":    "%[1]s must be one of: %[2]s",
}

// normalizer is implemented by requests that clean their fields (trimming,
// case folding) before validation, so length rules apply to what is used.
type normalizer interface {
	normalize()
}

// bindAndValidate decodes the JSON body into dest and validates it. On
// failure the error envelope is already written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if n, ok := any(dest).(normalizer); ok {
		n.normalize()
	}
	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.ErrValidation.WithMessage(formatValidationError(err)))
		return false
	}
	return true
}

func formatValidationError(err error) string {
	var failures appValidator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return genericValidationMessage
	}

	messages := make([]string, 0, len(failures))
	for _, f := range failures {
		field := humanFieldName(f.Field)
		if tmpl, ok := validationMessages[f.Tag]; ok {
			messages = append(messages, fmt.Sprintf(tmpl, field, f.Param))
			continue
		}
		msg := field + " failed validation: " + f.Tag
		if f.Param != "" {
			msg += "=" + f.Param
		}
		messages = append(messages, msg)
	}
	return strings.Join(messages, "; ")
}

func humanFieldName(name string) string {
	if name == "" {
		return "field"
	}
	return strings.ToLower(strings.ReplaceAll(name, "_", " "))
}

// parseBoolQuery returns nil when key is absent or unparseable so callers
// can tell "not filtered" from false.
func parseBoolQuery(c *gin.Context, key string) *bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return nil
	}
	return &parsed
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return fallback
	}
	return parsed
}
