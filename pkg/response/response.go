// Package response renders the JSON envelope shared by every API endpoint:
//
//	{"success": true, "data": ..., "meta": {...}}
//	{"success": false, "error": {"code": "...", "message": "..."}}
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/studyhub/studyhub-server/pkg/errors"
)

type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta accompanies list responses. Limit is omitted when the caller did not
// ask for one.
type Meta struct {
	Limit int `json:"limit,omitempty"`
	Total int `json:"total"`
}

func Success(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

// List writes items with a count. A nil slice renders as [] so clients never
// need to special-case null.
func List[T any](c *gin.Context, items []T, limit int) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    items,
		Meta:    &Meta{Limit: limit, Total: len(items)},
	})
}

// Error renders err through apperrors.FromError; anything that is not an
// AppError becomes a generic 500.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = apperrors.ErrInternalServer
	}
	appErr := apperrors.FromError(err)

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, Response{
		Error: &ErrorInfo{Code: appErr.Code, Message: appErr.Message},
	})
}

func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
