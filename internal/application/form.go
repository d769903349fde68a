// Package application implements the application submission flow: form
// validation, resume constraints and the Editing/Submitting state machine.
package application

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"jobboard-portal/internal/models"

	"github.com/go-playground/validator/v10"
)

// form is the validated view of a draft.
type form struct {
	FullName     string `json:"fullName" validate:"required,min=2"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,phone"`
	PortfolioURL string `json:"portfolioUrl" validate:"omitempty,url"`
	CoverLetter  string `json:"coverLetter" validate:"required,min=50"`
}

var fieldMessages = map[string]string{
	"fullName":     "Name must be at least 2 characters",
	"email":        "Invalid email address",
	"phone":        "Phone number must be at least 10 digits",
	"portfolioUrl": "Invalid URL",
	"coverLetter":  "Cover letter must be at least 50 characters",
}

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]+$`)
	validate     = newValidator()
)

const minPhoneDigits = 10

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("phone", validatePhone); err != nil {
		panic(err)
	}
	return v
}

func validatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if !phonePattern.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

// ValidationError carries one message per invalid form field, keyed by the
// field's JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks d against the application form schema. A blank portfolio
// URL counts as not provided.
func Validate(d models.DraftData) error {
	f := form{
		FullName:     strings.TrimSpace(d.FullName),
		Email:        strings.TrimSpace(d.Email),
		Phone:        strings.TrimSpace(d.Phone),
		PortfolioURL: strings.TrimSpace(d.PortfolioURL),
		CoverLetter:  d.CoverLetter,
	}

	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate application: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("failed on %s", fe.Tag())
		}
		fields[fe.Field()] = msg
	}
	return &ValidationError{Fields: fields}
}
