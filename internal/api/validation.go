package api

import (
	"errors"  // Error inspection
	"reflect" // Custom type registration
	"strings" // Tag parsing
	"sync"    // One-time validator setup

	"ledger_service/internal/ledger" // Balance bound

	"github.com/gin-gonic/gin/binding"       // Gin's validator hook
	"github.com/go-playground/validator/v10" // Struct validation
	"github.com/shopspring/decimal"          // Fixed-point money
)

// FieldError describes one rejected request field
type FieldError struct {
	Field   string `json:"field"`   // JSON field name
	Message string `json:"message"` // Human readable reason
	Type    string `json:"type"`    // Failed rule
}

var registerOnce sync.Once

// registerValidators teaches gin's validator about decimal amounts and
// JSON field names. It is safe to call more than once.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// Report the JSON name instead of the Go field name
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// Validate decimals on their canonical string form
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("amount", validateAmount)
		_ = v.RegisterValidation("balance", validateBalance)
	})
}

// validateAmount accepts positive values with at most two decimal places
// that fit a balance column
func validateAmount(fl validator.FieldLevel) bool {
	d, ok := moneyValue(fl)
	return ok && d.IsPositive()
}

// validateBalance accepts non-negative values with at most two decimal places
func validateBalance(fl validator.FieldLevel) bool {
	d, ok := moneyValue(fl)
	return ok && !d.IsNegative()
}

func moneyValue(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, d.Equal(d.Round(2)) && d.LessThanOrEqual(ledger.MaxBalance)
}

// fieldErrors converts validator errors into response details
func fieldErrors(err error) ([]FieldError, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{
			Field:   fe.Field(),
			Message: fieldErrorMsg(fe),
			Type:    fe.Tag(),
		})
	}
	return details, true
}

func fieldErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "uuid":
		return "Must be a valid UUID"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "amount":
		return "Must be greater than zero with at most two decimal places, up to 9999999999999999.99"
	case "balance":
		return "Must be zero or more with at most two decimal places, up to 9999999999999999.99"
	default:
		return "Invalid value"
	}
}
