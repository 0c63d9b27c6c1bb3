// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, authorizes, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Every service method takes the caller's user ID explicitly. Ownership is
// checked here, in one place, by resolving the target up to its event; the
// handlers never compare user IDs themselves.
//
// Services depend on repository interfaces, not on *sqlite.DB, so tests can
// run them against a real SQLite file or a fake.
package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/guestlist/internal/apperror"
)

// validate is shared by every service. validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names ("ticketTypeId") rather than Go ones
	// ("TicketTypeID"), so the client can map errors onto its form fields.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput runs the struct's `validate` tags and converts the first
// failure into an apperror.ValidationFailed carrying the field name.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed("", err.Error())
	}

	fe := verrs[0]
	return apperror.ValidationFailed(fe.Field(), describe(fe))
}

// describe turns a validator.FieldError into a short human message.
func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must be at least " + fe.Param() + " characters"
		}
		return field + " must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return field + " must be " + fe.Param() + " characters or less"
		}
		return field + " must be at most " + fe.Param()
	case "gte":
		return field + " must not be negative"
	case "gt":
		return field + " must be positive"
	default:
		return field + " is invalid"
	}
}
