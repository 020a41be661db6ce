// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Standard sentinel errors
var (
	ErrInputValidation  = errors.New("input validation failed")
	ErrInfeasible       = errors.New("operation not possible for current position")
	ErrNegativeValue    = errors.New("negative resulting value")
	ErrStoreUnavailable = errors.New("position store unavailable")
	ErrPositionNotFound = errors.New("position not found")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrUnsupportedInput = errors.New("unsupported input format")
)

// Reason names a single validation violation.
type Reason string

const (
	InvalidOrderType Reason = "InvalidOrderType"
	InvalidQuantity  Reason = "InvalidQuantity"
	InvalidDividend  Reason = "InvalidDividend"
	InvalidPrice     Reason = "InvalidPrice"
	InvalidTicker    Reason = "InvalidTicker"
	InvalidDate      Reason = "InvalidDate"
)

// FieldError is one violated validation rule.
type FieldError struct {
	Reason  Reason
	Field   string
	Value   interface{}
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s (%v): %s", e.Reason, e.Field, e.Value, e.Message)
}

// NewFieldError creates a new FieldError.
func NewFieldError(reason Reason, field string, value interface{}, message string) *FieldError {
	return &FieldError{
		Reason:  reason,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ValidationError reports every violated rule of one input at once.
type ValidationError struct {
	err error // multierr combination of *FieldError
}

// NewValidationError wraps a multierr combination of field errors. It returns
// nil when errs is nil.
func NewValidationError(errs error) *ValidationError {
	if errs == nil {
		return nil
	}
	return &ValidationError{err: errs}
}

func (e *ValidationError) Error() string {
	reasons := e.Reasons()
	names := make([]string, len(reasons))
	for i, r := range reasons {
		names[i] = string(r)
	}
	return fmt.Sprintf("validation error: %s", strings.Join(names, ", "))
}

// Is makes every ValidationError match ErrInputValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInputValidation
}

// Unwrap exposes the individual field errors.
func (e *ValidationError) Unwrap() []error {
	return multierr.Errors(e.err)
}

// Fields returns the individual violations in the order they were found.
func (e *ValidationError) Fields() []*FieldError {
	var fields []*FieldError
	for _, err := range multierr.Errors(e.err) {
		var fe *FieldError
		if errors.As(err, &fe) {
			fields = append(fields, fe)
		}
	}
	return fields
}

// Reasons returns the violated reasons.
func (e *ValidationError) Reasons() []Reason {
	fields := e.Fields()
	reasons := make([]Reason, len(fields))
	for i, f := range fields {
		reasons[i] = f.Reason
	}
	return reasons
}

// Has reports whether reason is among the violations.
func (e *ValidationError) Has(reason Reason) bool {
	for _, r := range e.Reasons() {
		if r == reason {
			return true
		}
	}
	return false
}

// Report returns the violations as a reason -> true map, the shape the HTTP
// layer returns to clients.
func (e *ValidationError) Report() map[Reason]bool {
	report := make(map[Reason]bool)
	for _, r := range e.Reasons() {
		report[r] = true
	}
	return report
}

// RejectionError is returned when a recalculation would persist an invalid
// position.
type RejectionError struct {
	Ticker string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("recalculation rejected [%s]: %s", e.Ticker, e.Reason)
}

// Is makes negative-value rejections match ErrNegativeValue.
func (e *RejectionError) Is(target error) bool {
	return target == ErrNegativeValue && e.Reason == ErrNegativeValue.Error()
}

// NewRejectionError creates a new RejectionError.
func NewRejectionError(ticker, reason string) *RejectionError {
	return &RejectionError{
		Ticker: ticker,
		Reason: reason,
	}
}

// StoreError represents a failure of the position store.
type StoreError struct {
	Operation string
	Ticker    string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Ticker != "" {
		return fmt.Sprintf("store error [%s] %s: %v", e.Operation, e.Ticker, e.Err)
	}
	return fmt.Sprintf("store error [%s]: %v", e.Operation, e.Err)
}

// Is makes every StoreError match ErrStoreUnavailable.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation, ticker string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		Ticker:    ticker,
		Err:       err,
	}
}

// ImportError represents a failure on one row of a batch import.
type ImportError struct {
	Row int
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import error [row %d]: %v", e.Row, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// NewImportError creates a new ImportError.
func NewImportError(row int, err error) *ImportError {
	return &ImportError{
		Row: row,
		Err: err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
