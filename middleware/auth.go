package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"storefront/jwt"
	"storefront/logger"
	"storefront/models"
)

const (
	identityKey = "Identity"
	claimsKey   = "Claims"
)

// TokenVerifier 由jwt.Issuer實作
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*jwt.Claims, error)
}

// AuthMiddleware 有合法Token時寫入使用者身分，否則以未登入身分繼續
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := jwt.ExtractBearer(header)
		if !ok {
			logger.Security(c, "malformed_authorization", nil)
			c.Next()
			return
		}

		//如Token不合法或已登出則視為未登入
		claims, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, jwt.ErrInvalidToken) {
				logger.Security(c, "invalid_token", nil)
			} else {
				logger.Error(c, "verify_token", err, nil)
			}
			c.Next()
			return
		}
		identity, err := claims.Identity()
		if err != nil {
			logger.Security(c, "invalid_token", nil)
			c.Next()
			return
		}

		c.Set(identityKey, identity)
		c.Set(claimsKey, claims)
		c.Set(logger.UserIDKey, identity.ID.Hex())
		c.Next()
	}
}

// GetIdentity 未登入時回傳false
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}

// Identity 未登入時回傳零值，供公開路由使用
func Identity(c *gin.Context) models.Identity {
	identity, _ := GetIdentity(c)
	return identity
}

func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}
