// Package errors provides custom error types for the forecasting pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors. Every typed error below matches exactly one
// stage sentinel through its Is method.
var (
	ErrNoData         = errors.New("no data")
	ErrFetch          = errors.New("fetch failed")
	ErrValidation     = errors.New("series validation failed")
	ErrModel          = errors.New("model error")
	ErrRender         = errors.New("render error")
	ErrUnknownStock   = errors.New("unknown stock")
	ErrInvalidHorizon = errors.New("invalid forecast horizon")
	ErrConfigInvalid  = errors.New("invalid configuration")
	ErrDatabaseError  = errors.New("database error")
)

// Stage names a pipeline stage an error belongs to.
type Stage string

const (
	StageInput    Stage = "input"
	StageLoad     Stage = "load"
	StagePrepare  Stage = "prepare"
	StageForecast Stage = "forecast"
	StageRender   Stage = "render"
	StageUnknown  Stage = "unknown"
)

// NoDataError is returned when the provider answers with zero rows.
type NoDataError struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data for %s between %s and %s",
		e.Symbol, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

// NewNoDataError creates a new NoDataError.
func NewNoDataError(symbol string, start, end time.Time) *NoDataError {
	return &NoDataError{Symbol: symbol, Start: start, End: end}
}

// FetchError wraps a transport or provider failure.
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// NewFetchError creates a new FetchError.
func NewFetchError(symbol string, err error) *FetchError {
	return &FetchError{Symbol: symbol, Err: err}
}

// MissingColumnError reports a required column absent from a table.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("validation error: column %q is missing", e.Column)
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrValidation }

// NumericKind distinguishes why a value could not be made numeric.
type NumericKind string

const (
	// TypeMismatch means the cell held a type that has no numeric reading.
	TypeMismatch NumericKind = "type_mismatch"
	// Unparseable means the cell was text that does not parse as a number.
	Unparseable NumericKind = "unparseable"
)

// NumericConversionError reports a value that could not be coerced to float64.
type NumericConversionError struct {
	Column string
	Kind   NumericKind
	Row    int
	Value  interface{}
	Err    error
}

func (e *NumericConversionError) Error() string {
	return fmt.Sprintf("validation error: %s: column %q row %d (%v): %v",
		e.Kind, e.Column, e.Row, e.Value, e.Err)
}

func (e *NumericConversionError) Unwrap() error { return e.Err }

func (e *NumericConversionError) Is(target error) bool { return target == ErrValidation }

// MissingValueError reports null entries after numeric coercion.
type MissingValueError struct {
	Column string
	Count  int
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("validation error: column %q contains %d missing values", e.Column, e.Count)
}

func (e *MissingValueError) Is(target error) bool { return target == ErrValidation }

// StructuralTypeError reports a value column that is not a flat homogeneous sequence.
type StructuralTypeError struct {
	Column string
	Reason string
}

func (e *StructuralTypeError) Error() string {
	return fmt.Sprintf("validation error: column %q is not one-dimensional: %s", e.Column, e.Reason)
}

func (e *StructuralTypeError) Is(target error) bool { return target == ErrValidation }

// TimestampError reports a timestamp cell that cannot be read as a date.
type TimestampError struct {
	Column string
	Row    int
	Value  interface{}
	Err    error
}

func (e *TimestampError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation error: column %q row %d (%v) is not a date: %v", e.Column, e.Row, e.Value, e.Err)
	}
	return fmt.Sprintf("validation error: column %q row %d (%v) is not a date", e.Column, e.Row, e.Value)
}

func (e *TimestampError) Unwrap() error { return e.Err }

func (e *TimestampError) Is(target error) bool { return target == ErrValidation }

// ModelPhase is the forecaster sub-phase that failed.
type ModelPhase string

const (
	PhaseFit     ModelPhase = "fit"
	PhasePredict ModelPhase = "predict"
)

// ModelError wraps a failure inside the forecasting model.
type ModelError struct {
	Phase ModelPhase
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error [%s]: %v", e.Phase, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func (e *ModelError) Is(target error) bool { return target == ErrModel }

// NewModelError creates a new ModelError.
func NewModelError(phase ModelPhase, err error) *ModelError {
	return &ModelError{Phase: phase, Err: err}
}

// RenderError is scoped to a single chart or table panel.
type RenderError struct {
	Panel  string
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render error [%s]: %s: %v", e.Panel, e.Reason, e.Err)
	}
	return fmt.Sprintf("render error [%s]: %s", e.Panel, e.Reason)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRender }

// NewRenderError creates a new RenderError.
func NewRenderError(panel, reason string, err error) *RenderError {
	return &RenderError{Panel: panel, Reason: reason, Err: err}
}

// ValidationError represents an invalid user input such as a selection.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message, Err: err}
}

// StageOf classifies err into the pipeline stage that produced it.
func StageOf(err error) Stage {
	switch {
	case err == nil:
		return StageUnknown
	case errors.Is(err, ErrUnknownStock), errors.Is(err, ErrInvalidHorizon):
		return StageInput
	case errors.Is(err, ErrNoData), errors.Is(err, ErrFetch):
		return StageLoad
	case errors.Is(err, ErrValidation):
		return StagePrepare
	case errors.Is(err, ErrModel):
		return StageForecast
	case errors.Is(err, ErrRender):
		return StageRender
	default:
		return StageUnknown
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

// New returns an error with the given text.
func New(text string) error {
	return errors.New(text)
}
