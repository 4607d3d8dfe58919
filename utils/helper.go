package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

func DefaultCountryCode() string {
	if v := strings.TrimSpace(os.Getenv("PHONE_COUNTRY_CODE")); v != "" {
		return strings.ToUpper(v)
	}
	return "CN"
}

// ValidatePhoneNumber parses the number for the region and returns it in E.164 form.
func ValidatePhoneNumber(phoneNumber, countryCode string) (string, error) {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return "", NewValidationError("invalid phone number: %s", phoneNumber)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", NewValidationError("invalid phone number: %s", phoneNumber)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// NormalizeOptionalPhone validates a phone number only when one was given.
func NormalizeOptionalPhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	return ValidatePhoneNumber(phone, DefaultCountryCode())
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorResponse["request"] = err.Error()
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	var zero T
	if len(defaults) > 0 {
		return defaults[0]
	}
	return zero
}

// ParseAmount accepts user formatted amounts such as "20,000", "¥ 1,200.50" or "USD -300".
func ParseAmount(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	neg := false
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			neg = true
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.Zero, fmt.Errorf("invalid amount %q", value)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, err
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}
