package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/errs"
	"storefront/logger"
)

// 檢查是否有登入，沒有則中止請求
func CheckLoginMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := GetIdentity(c); !exists {
			logger.Security(c, "login_required", nil)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   errs.KindUnauthorized,
				"message": "尚未登入",
			})
			return
		}

		c.Next()
	}
}
