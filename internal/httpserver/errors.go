package httpserver

import (
	"errors"
	"net/http"

	"produce-marketplace/internal/domain"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrValidation, http.StatusBadRequest, "validation_failed"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrAuth, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrNetwork, http.StatusBadGateway, "upstream_failed"},
}

func statusFor(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.JSON(status, errorResponse{Error: msg, Code: code})
}

func abortError(c *gin.Context, err error) {
	respondError(c, err)
	c.Abort()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "invalid_request"})
}
