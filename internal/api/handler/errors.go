package handler

import (
	"net/http"

	"github.com/mcoot/mpcoord/internal/api/apierr"
)

// WriteError writes err as the error envelope with its mapped status
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates a 400 for a request the handler rejects itself
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}
