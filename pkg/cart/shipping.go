package cart

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentPaypal         PaymentMethod = "paypal"
	PaymentPayoneer       PaymentMethod = "payoneer"
	PaymentCheck          PaymentMethod = "check_payment"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// Shipping holds the contact and delivery details collected at checkout.
type Shipping struct {
	FirstName     string        `json:"first_name" validate:"required,max=255"`
	LastName      string        `json:"last_name" validate:"required,max=255"`
	Email         string        `json:"email" validate:"required,email,max=255"`
	Phone         string        `json:"phone" validate:"required,phone"`
	Address       string        `json:"address" validate:"required,max=1000"`
	Country       string        `json:"country" validate:"required,iso3166_1_alpha2"`
	State         string        `json:"state" validate:"required,max=255"`
	City          string        `json:"city" validate:"required,max=255"`
	PostalCode    string        `json:"postal_code" validate:"required,max=32"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=paypal payoneer check_payment bank_transfer cash_on_delivery"`
}

// FullName joins first and last name.
func (s Shipping) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func (s Shipping) normalize() Shipping {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Address = strings.TrimSpace(s.Address)
	s.Country = strings.ToUpper(strings.TrimSpace(s.Country))
	s.State = strings.TrimSpace(s.State)
	s.City = strings.TrimSpace(s.City)
	s.PostalCode = strings.TrimSpace(s.PostalCode)
	return s
}

// ErrValidation matches any *ValidationError with errors.Is.
var ErrValidation = errors.New("validation failed")

// FieldViolation describes one field that failed a rule.
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every violated field of an input.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().\-]{6,32}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateShipping checks s against the shipping rule set and returns a
// *ValidationError naming every field that fails.
func ValidateShipping(s Shipping) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := &ValidationError{Violations: make([]FieldViolation, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		ve.Violations = append(ve.Violations, FieldViolation{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: violationMessage(fe),
		})
	}
	return ve
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "iso3166_1_alpha2":
		return "must be a two-letter country code"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
