package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/medrec-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse carries a filtered page plus the pre-pagination total.
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError maps the application error taxonomy onto HTTP statuses.
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperrors.ErrNotFound:
		status = http.StatusNotFound
	case apperrors.ErrBadRequest:
		status = http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrForbidden:
		status = http.StatusForbidden
	case apperrors.ErrConflict:
		status = http.StatusConflict
	}
	c.JSON(status, NewErrorResponse(appErr.Message))
}
