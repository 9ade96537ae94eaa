package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/meterline/meterline/internal/types"
)

var corsAllowedHeaders = strings.Join([]string{
	"Content-Type",
	"Authorization",
	types.HeaderRequestID,
	types.HeaderTenantID,
	types.HeaderEnvironmentID,
}, ", ")

// CORSMiddleware answers preflight requests and exposes the scoping headers
// browser clients send on API calls.
func CORSMiddleware(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
	c.Writer.Header().Set("Access-Control-Expose-Headers", types.HeaderRequestID)
	c.Writer.Header().Set("Access-Control-Max-Age", "86400")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}
