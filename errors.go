package xfer

import (
	"errors"
	"fmt"
)

// Validation error categories. Every error returned from a SetContent method
// matches exactly one of these with errors.Is.
var (
	// ErrInvalidParameter reports out-of-range offsets, sizes, subresource
	// indices, empty region lists and misaligned values.
	ErrInvalidParameter = errors.New("xfer: invalid parameter")

	// ErrIncompatible reports format, sample-count, aspect or usage
	// combinations that cannot be performed, not even through emulation.
	ErrIncompatible = errors.New("xfer: incompatible resources")

	// ErrCapacity reports data exceeding an inline limit.
	ErrCapacity = errors.New("xfer: capacity exceeded")
)

// ErrorCategory classifies a validation failure.
type ErrorCategory uint8

const (
	CategoryParameter ErrorCategory = iota
	CategoryCompatibility
	CategoryCapacity
)

var categoryNames = [...]string{
	CategoryParameter:     "parameter",
	CategoryCompatibility: "compatibility",
	CategoryCapacity:      "capacity",
}

// String returns the category name.
func (c ErrorCategory) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("ErrorCategory(%d)", c)
}

func (c ErrorCategory) sentinel() error {
	switch c {
	case CategoryCompatibility:
		return ErrIncompatible
	case CategoryCapacity:
		return ErrCapacity
	default:
		return ErrInvalidParameter
	}
}

// ValidationError describes the first parameter that made SetContent reject
// a command. Region is the index of the offending region, or -1 when the
// failure concerns a command-wide parameter.
type ValidationError struct {
	Command  CommandUse
	Region   int
	Field    string
	Category ErrorCategory
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Region < 0 {
		return fmt.Sprintf("xfer: %s: %s: %s", e.Command, e.Field, e.Reason)
	}
	return fmt.Sprintf("xfer: %s: region %d: %s: %s", e.Command, e.Region, e.Field, e.Reason)
}

// Unwrap returns the category sentinel.
func (e *ValidationError) Unwrap() error { return e.Category.sentinel() }

// CategoryOf returns the category of a validation error returned by
// SetContent. The second result is false for nil or foreign errors.
func CategoryOf(err error) (ErrorCategory, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Category, true
	}
	return 0, false
}

// check accumulates the identity of the command being validated so that
// helpers can build errors without repeating it.
type check struct {
	use    CommandUse
	region int
}

func (c check) at(region int) check { return check{use: c.use, region: region} }

func (c check) param(field, format string, args ...any) error {
	return c.fail(CategoryParameter, field, format, args...)
}

func (c check) incompatible(field, format string, args ...any) error {
	return c.fail(CategoryCompatibility, field, format, args...)
}

func (c check) capacity(field, format string, args ...any) error {
	return c.fail(CategoryCapacity, field, format, args...)
}

func (c check) fail(cat ErrorCategory, field, format string, args ...any) error {
	err := &ValidationError{
		Command:  c.use,
		Region:   c.region,
		Field:    field,
		Category: cat,
		Reason:   fmt.Sprintf(format, args...),
	}
	slogger().Debug("xfer: validation failed", "command", c.use.String(), "region", c.region, "field", field, "category", cat.String())
	return err
}
