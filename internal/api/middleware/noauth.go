package middleware

import (
	"github.com/gin-gonic/gin"
)

// LocalProfileID is the single profile served when AUTH_MODE=none
const LocalProfileID = "local"

// NoAuth is a pass-through middleware for when AUTH_MODE=none.
// Every request shares the local profile, the way one browser shares its local storage.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKeyProfileID, LocalProfileID)
		c.Next()
	}
}
