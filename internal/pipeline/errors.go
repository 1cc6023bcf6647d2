package pipeline

import (
	"errors"
	"net/http"

	"github.com/Lllllllleong/marketingkitflow/internal/repository"
)

// Error kinds. Stage errors wrap exactly one of these so callers can classify them with
// errors.Is.
var (
	ErrValidation           = errors.New("validation failed")
	ErrResourceCreation     = errors.New("resource creation failed")
	ErrContentGeneration    = errors.New("content generation failed")
	ErrGraphicsGeneration   = errors.New("graphics generation failed")
	ErrPersistence          = errors.New("marketing kit persistence failed")
	ErrTimeout              = errors.New("generation timed out")
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrNotFound             = repository.ErrNotFound
)

// UserMessage returns the message shown to the end user for a failed run.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "Please fill in all required fields and upload at least one file."
	case errors.Is(err, ErrTimeout):
		return "Content generation is taking too long. Please try again."
	case errors.Is(err, ErrGenerationInProgress):
		return "A marketing kit is already being generated for this property. Please wait for it to finish."
	case errors.Is(err, ErrNotFound):
		return "The requested property could not be found."
	case errors.Is(err, ErrResourceCreation):
		return "We could not save your property details. Please try again."
	case errors.Is(err, ErrContentGeneration):
		return "We could not generate social media content for this property. Please try again."
	case errors.Is(err, ErrPersistence):
		return "Your marketing kit was generated but could not be saved. Please try again."
	default:
		return "Failed to generate marketing kit."
	}
}

// HTTPStatus maps an error kind to the status code returned by the HTTP functions.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrGenerationInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
