package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rogaciano/rotadomarPLM/internal/allocation"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondDomainError maps core sentinel errors onto HTTP statuses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, allocation.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, allocation.ErrInvalidInput):
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, allocation.ErrConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
