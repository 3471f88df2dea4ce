package middleware

import (
	"net/http"

	"travis/services/authflow"
	"travis/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by ConsoleAuthMiddleware.
const (
	ConsoleSubjectKey = "consoleSubject"
	ConsoleEmailKey   = "consoleEmail"
)

// ConsoleAuthMiddleware admits requests carrying a valid console session
// cookie. Pages without one are sent to the login view; API calls get 401.
func ConsoleAuthMiddleware(secret []byte, api bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(utils.ConsoleSessionCookie)
		if err == nil && token != "" {
			subject, email, err := utils.SessionClaims(secret, token)
			if err == nil {
				c.Set(ConsoleSubjectKey, subject)
				c.Set(ConsoleEmailKey, email)
				c.Next()
				return
			}
		}

		if api {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}
		c.Redirect(http.StatusSeeOther, authflow.LoginPath)
		c.Abort()
	}
}
