package middleware

import (
	"errors"
	"net/http"

	"mlshield-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Error renders the last error pushed into the gin context. BaseError carries
// its own HTTP mapping; anything else is an internal error.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		var base errutil.BaseError
		if errors.As(last.Err, &base) {
			c.JSON(base.Code.HTTPStatus(), base.JSON())
			return
		}

		c.JSON(http.StatusInternalServerError, errutil.BaseError{
			Code:    errutil.StatusInternal,
			Message: "internal error",
		}.JSON())
	}
}
