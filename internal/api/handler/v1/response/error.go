package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Err struct {
	statusCode int

	Message string `json:"message"`
}

func (e *Err) Error() string {
	return e.Message
}

func NewErr(statusCode int, message string) *Err {
	return &Err{
		statusCode: statusCode,
		Message:    message,
	}
}

func ErrBadRequest(err error) *Err {
	return NewErr(http.StatusBadRequest, err.Error())
}

func ErrForbidden(message string) *Err {
	return NewErr(http.StatusForbidden, message)
}

func ErrNotFound(resource, key string, value interface{}) *Err {
	return NewErr(http.StatusNotFound, fmt.Sprintf("%v with %v (%v) not found", resource, key, value))
}

func NewNotFound(resource string) *Err {
	return NewErr(http.StatusNotFound, resource+" not found")
}

func ErrConflict(message string) *Err {
	return NewErr(http.StatusConflict, message)
}

func ErrPaymentRequired(message string) *Err {
	return NewErr(http.StatusPaymentRequired, message)
}

func ErrUnprocessableEntity(err error) *Err {
	return NewErr(http.StatusUnprocessableEntity, err.Error())
}

func ErrInternalServerError(err error) *Err {
	zap.L().Error("internal server error", zap.Error(err))

	return NewErr(http.StatusInternalServerError, "internal server error")
}

func RenderErr(ctx *gin.Context, err *Err) {
	ctx.AbortWithStatusJSON(err.statusCode, err)
}
