package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValidationError represents a structured validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects multiple field errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}

// Limits on operator input.
const (
	MaxQuantity     = 1000000
	MaxNameLength   = 200
	MaxStringLength = 10000
	MaxMinQty       = 9999
	MaxWindowSize   = 365
)

// MaxPrice bounds unit prices.
var MaxPrice = decimal.NewFromInt(1000000)

// RequireField checks a required string field is non-empty.
func RequireField(ve *ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, "is required")
	}
}

// ValidateIntRange checks a field is within a specified range.
func ValidateIntRange(ve *ValidationErrors, field string, value, min, max int) {
	if value < min || value > max {
		ve.Add(field, fmt.Sprintf("must be between %d and %d", min, max))
	}
}

// ValidateMaxLength checks string doesn't exceed max length.
func ValidateMaxLength(ve *ValidationErrors, field, value string, max int) {
	if len(value) > max {
		ve.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// ValidatePrice checks a price is non-negative and below MaxPrice.
func ValidatePrice(ve *ValidationErrors, field string, value decimal.Decimal) {
	if value.IsNegative() {
		ve.Add(field, "must be non-negative")
		return
	}
	if value.GreaterThan(MaxPrice) {
		ve.Add(field, "exceeds maximum allowed price of "+MaxPrice.String())
	}
}

// ValidateDate parses a YYYY-MM-DD field, recording an error when invalid.
func ValidateDate(ve *ValidationErrors, field, value string) time.Time {
	if value == "" {
		ve.Add(field, "is required")
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		ve.Add(field, "must be a valid date (YYYY-MM-DD)")
	}
	return t
}

// ReservedNames are item names that collide with /api/v1/items/ sub-routes.
var ReservedNames = map[string]bool{"export": true, "import": true}

// ValidateItem checks the fields shared by add, edit and import.
func ValidateItem(ve *ValidationErrors, name string, quantity int, price decimal.Decimal) {
	RequireField(ve, "name", name)
	ValidateMaxLength(ve, "name", name, MaxNameLength)
	if ReservedNames[name] {
		ve.Add("name", "is reserved")
	}
	ValidateIntRange(ve, "quantity", quantity, 0, MaxQuantity)
	ValidatePrice(ve, "price", price)
}
