package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-attendance-api/internal/service"
	"github.com/noah-isme/lms-attendance-api/pkg/response"
)

// ContextCustomerKey is the gin context key storing the authenticated
// customer id resolved from the caller's API key.
const ContextCustomerKey = "currentCustomer"

// APIKeyHeader carries the caller credential.
const APIKeyHeader = "X-API-Key"

// APIKey protects routes by requiring a valid, active caller key.
func APIKey(keyService *service.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, err := keyService.Authenticate(c.Request.Context(), c.GetHeader(APIKeyHeader))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextCustomerKey, customerID)
		c.Next()
	}
}
