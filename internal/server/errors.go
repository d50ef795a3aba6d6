// Package server provides the BrandOS HTTP API and dashboard.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/brandos/internal/aeo"
	"github.com/jonathan/brandos/internal/content"
	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/fetch"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnavailable indicates a feature whose backing service is not configured.
type ErrUnavailable struct {
	Feature string
}

func (e *ErrUnavailable) Error() string {
	return e.Feature + " is not configured"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation  *ErrValidation
		notFound    *ErrNotFound
		unavailable *ErrUnavailable
		invalid     validator.ValidationErrors
		fetchErr    *fetch.Error
		genErr      *content.GenerationError
		engineErr   *aeo.EngineError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.As(err, &invalid), errors.Is(err, content.ErrEmptyContent):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &unavailable), errors.Is(err, aeo.ErrNoAPIKey):
		return http.StatusServiceUnavailable
	case errors.As(err, &fetchErr), errors.As(err, &genErr), errors.As(err, &engineErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
