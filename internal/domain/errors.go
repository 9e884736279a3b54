// Package domain defines core types and errors for the report engine.
package domain

import "fmt"

// ConfigurationError indicates an internally inconsistent report
// configuration: unknown department, a formula referencing an undefined
// parameter or constant, a cyclic formula dependency, or an unknown
// grouping behavior. Always raised at config resolution time, never
// deferred into per-row evaluation.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// DataValidationError indicates the input dataset fails preconditions
// (empty, missing mandatory or report columns). Raised before any
// aggregation work begins.
type DataValidationError struct {
	Message string
}

func (e *DataValidationError) Error() string { return e.Message }

// FormulaCalculationError indicates a specific formula failed during
// evaluation for a specific group (division by zero, missing runtime
// value). Formula and Group identify where it happened so the caller
// can decide whether to abort or substitute.
type FormulaCalculationError struct {
	Formula string
	Group   string
	Message string
}

func (e *FormulaCalculationError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("formula %q: %s (group %s)", e.Formula, e.Message, e.Group)
	}
	return fmt.Sprintf("formula %q: %s", e.Formula, e.Message)
}

// BuilderNotFoundError indicates the requested report type has no
// registered builder.
type BuilderNotFoundError struct {
	ReportType string
}

func (e *BuilderNotFoundError) Error() string {
	return fmt.Sprintf("no builder registered for report type %q", e.ReportType)
}

// ErrConfiguration creates a ConfigurationError with a formatted message.
func ErrConfiguration(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// ErrDataValidation creates a DataValidationError with a formatted message.
func ErrDataValidation(format string, args ...interface{}) *DataValidationError {
	return &DataValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrFormula creates a FormulaCalculationError for the given formula key.
func ErrFormula(formula, group, format string, args ...interface{}) *FormulaCalculationError {
	return &FormulaCalculationError{Formula: formula, Group: group, Message: fmt.Sprintf(format, args...)}
}
