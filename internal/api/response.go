package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/claimgraph/internal/model"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Error codes returned in the envelope
const (
	CodeBadRequest            = "bad_request"
	CodeInvalidInput          = "invalid_input"
	CodeDataIntegrity         = "data_integrity"
	CodeConfig                = "config_error"
	CodeClassifierUnavailable = "classifier_unavailable"
	CodeClassificationFailed  = "classification_failed"
	CodeInternal              = "internal_error"
)

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

// respondDomainError maps the error taxonomy onto HTTP statuses
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrDataIntegrity):
		RespondError(c, http.StatusUnprocessableEntity, CodeDataIntegrity, err)
	case errors.Is(err, model.ErrInvalidInput):
		RespondError(c, http.StatusBadRequest, CodeInvalidInput, err)
	case errors.Is(err, model.ErrConfig):
		RespondError(c, http.StatusBadRequest, CodeConfig, err)
	case errors.Is(err, model.ErrClassification):
		RespondError(c, http.StatusBadGateway, CodeClassificationFailed, err)
	default:
		RespondError(c, http.StatusInternalServerError, CodeInternal, err)
	}
}
