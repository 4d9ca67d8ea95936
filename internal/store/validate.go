package store

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"bus_tracker/internal/apperror"
	"bus_tracker/internal/models"
)

var (
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// checkStruct runs the validate tags on in and reports the first failure
// as a ValidationError.
func checkStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &apperror.ValidationError{Field: fe.Field(), Message: describe(fe)}
	}
	return fmt.Errorf("validate input: %w", err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}

// normalizeColor accepts "#RRGGBB" or a bare "RRGGBB" and returns the
// prefixed form. An empty color yields the default.
func normalizeColor(raw string) (string, error) {
	c := strings.TrimSpace(raw)
	if c == "" {
		return models.DefaultRouteColor, nil
	}
	if !strings.HasPrefix(c, "#") {
		c = "#" + c
	}
	if !colorPattern.MatchString(c) {
		return "", apperror.Validation("color", "must be a 6-digit hex color like #3498db, got %q", raw)
	}
	return strings.ToLower(c), nil
}

func checkOperatingHours(h *models.OperatingHours) error {
	if h == nil {
		return nil
	}
	if h.Start != "" && !clockPattern.MatchString(h.Start) {
		return apperror.Validation("operatingHours.start", "must be HH:MM, got %q", h.Start)
	}
	if h.End != "" && !clockPattern.MatchString(h.End) {
		return apperror.Validation("operatingHours.end", "must be HH:MM, got %q", h.End)
	}
	for _, d := range h.Days {
		if strings.TrimSpace(d) == "" {
			return apperror.Validation("operatingHours.days", "must not contain empty entries")
		}
	}
	return nil
}
