package api

import (
	"errors"
	"net/http"

	"millreport/internal/archive"
	"millreport/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var configuration *domain.ConfigurationError
	var validation *domain.DataValidationError
	var formula *domain.FormulaCalculationError
	var builderNotFound *domain.BuilderNotFoundError

	switch {
	case errors.As(err, &builderNotFound):
		return http.StatusNotFound
	case errors.As(err, &configuration):
		return http.StatusBadRequest
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &formula):
		return http.StatusUnprocessableEntity
	case errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
