package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError writes err as JSON. Validation errors become a field-keyed
// 400 body; CustomErrors use their own status; anything else is a 500.
func RespondError(c *gin.Context, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		if len(ve.Fields) > 0 {
			c.JSON(http.StatusBadRequest, ve.Fields)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
		return
	}

	var ce *CustomError
	if !errors.As(err, &ce) {
		ce = ErrInternalError.Wrap(err)
	}

	if ce.Status >= http.StatusInternalServerError {
		LogError("Request failed",
			zap.String("code", ce.Code),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}

	resp := ErrorResponse{Code: ce.Code, Message: ce.Message}
	if gin.IsDebugging() && ce.Err != nil {
		resp.Details = ce.Err.Error()
	}
	c.JSON(ce.Status, resp)
}
