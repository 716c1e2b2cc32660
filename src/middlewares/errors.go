package middlewares

import (
	"errors"
	"log"
	"net/http"

	"ticketbooth/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorHandler writes the response for the last error a handler recorded with ctx.Error.
func ErrorHandler(ctx *gin.Context) {
	ctx.Next()
	if len(ctx.Errors) == 0 || ctx.Writer.Written() {
		return
	}
	status, body := TranslateError(ctx.Errors.Last().Err)
	ctx.JSON(status, body)
}

func TranslateError(err error) (int, types.APIResponse) {
	var apiErr *types.APIError
	switch {
	case errors.As(err, &apiErr):
		if cause := errors.Unwrap(apiErr); cause != nil {
			log.Printf("[API] %s: %s\n", apiErr.Message, cause.Error())
		}
		return apiErr.StatusCode(), types.ErrorResponse(apiErr.Message, apiErr.Errors)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, types.ErrorResponse("Not Found", nil)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict, types.ErrorResponse("Conflict", nil)
	}
	log.Printf("[API] Unhandled error: %s\n", err.Error())
	return http.StatusInternalServerError, types.ErrorResponse("Internal Server Error", nil)
}
