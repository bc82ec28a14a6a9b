package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/errs"
	"storefront/logger"
)

// 檢查是否有admin權限，沒有則中止請求
func CheckAdminPermissionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := GetIdentity(c)
		if !exists {
			logger.Security(c, "login_required", nil)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   errs.KindUnauthorized,
				"message": "尚未登入",
			})
			return
		}
		if !identity.IsAdmin() {
			logger.Security(c, "admin_required", map[string]any{"role": identity.Role})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   errs.KindForbidden,
				"message": "沒有權限",
			})
			return
		}

		c.Next()
	}
}
