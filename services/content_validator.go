package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"dar-review-api/models"

	"github.com/go-playground/validator/v10"
)

// ContentValidator inspects application content before it is handed to a reviewer.
// findings lists missing or invalid fields; err is reserved for failures to validate at all.
type ContentValidator interface {
	Validate(ctx context.Context, content models.ApplicationContent) (findings []string, err error)
}

// StructContentValidator checks the validate tags on models.ApplicationContent.
type StructContentValidator struct {
	validate *validator.Validate
}

func NewContentValidator() *StructContentValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &StructContentValidator{validate: v}
}

func (s *StructContentValidator) Validate(ctx context.Context, content models.ApplicationContent) ([]string, error) {
	err := s.validate.StructCtx(ctx, content)
	if err == nil {
		return nil, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("validate content: %w", err)
	}

	findings := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		findings = append(findings, describeFieldError(fe))
	}
	return findings, nil
}

// describeFieldError renders "project_info.title: required" from a field error namespace
// such as "ApplicationContent.project_info.title".
func describeFieldError(fe validator.FieldError) string {
	path := fe.Namespace()
	if idx := strings.Index(path, "."); idx >= 0 {
		path = path[idx+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s: %s=%s", path, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s: %s", path, fe.Tag())
}
