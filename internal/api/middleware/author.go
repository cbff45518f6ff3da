package middleware

import (
	"strings"

	"recipio/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// UserIDHeader carries the caller identity set by the upstream gateway.
	UserIDHeader = "X-User-ID"

	userIDKey = "user_id"
)

// RequireUser aborts with 401 unless the request carries a valid user ID.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(strings.TrimSpace(c.GetHeader(UserIDHeader)))
		if err != nil || id == uuid.Nil {
			common.RespondError(c, common.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserID returns the ID stored by RequireUser.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
