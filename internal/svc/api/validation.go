package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mkrupp/underwritepro/internal/domain"
)

// Wizard steps of a loan application.
const (
	StepLoanDetails = iota + 1
	StepBorrower
	StepProperty
	StepFinancials
)

// ErrUnknownStep is returned by ValidateStep for a step outside the wizard.
var ErrUnknownStep = errors.New("unknown step")

//nolint:gochecknoglobals
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}

			return name
		})

		validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
	})

	return validate
}

func decimalValue(field reflect.Value) any {
	switch v := field.Interface().(type) {
	case decimal.Decimal:
		f, _ := v.Float64()

		return f
	case decimal.NullDecimal:
		if !v.Valid {
			return nil
		}

		f, _ := v.Decimal.Float64()

		// a pointer keeps required a presence check, so a valid zero passes
		return &f
	}

	return nil
}

// Validate checks the struct tags of v. Field failures are returned as
// domain.ValidationErrors keyed by the JSON field name.
func Validate(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	result := make(domain.ValidationErrors, len(fieldErrs))

	for _, fe := range fieldErrs {
		if _, ok := result[fe.Field()]; !ok {
			result[fe.Field()] = fieldMessage(fe)
		}
	}

	return result
}

// ValidateStep checks only the fields of one wizard step.
func ValidateStep(step int, app domain.LoanApplication) error {
	switch step {
	case StepLoanDetails:
		return Validate(app.LoanDetails)
	case StepBorrower:
		return Validate(app.BorrowerInfo)
	case StepProperty:
		return Validate(app.PropertyDetails)
	case StepFinancials:
		return Validate(app.FinancialInfo)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}

		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
