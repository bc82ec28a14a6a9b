package jwt

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

// ErrInvalidToken 格式錯誤、過期、簽章錯誤、已登出一律回傳同一個錯誤
var ErrInvalidToken = errors.New("invalid token")

// Denylist 記錄已登出的token ID直到過期
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Claims struct {
	UserID string      `json:"id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity 將claims轉回請求身分
func (c *Claims) Identity() (models.Identity, error) {
	id, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return models.Identity{}, ErrInvalidToken
	}
	return models.Identity{ID: id, Name: c.Name, Email: c.Email, Role: c.Role}, nil
}

type Issuer struct {
	secret   []byte
	lifetime time.Duration
	denylist Denylist
	now      func() time.Time
}

func NewIssuer(secret string, lifetime time.Duration, denylist Denylist) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if lifetime <= 0 {
		return nil, errors.New("jwt lifetime must be positive")
	}
	return &Issuer{secret: []byte(secret), lifetime: lifetime, denylist: denylist, now: time.Now}, nil
}

// 生成JWT Token
func (i *Issuer) GenerateToken(identity models.Identity) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.lifetime)
	claims := Claims{
		UserID: identity.ID.Hex(),
		Name:   identity.Name,
		Email:  identity.Email,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// 驗證JWT Token並回傳claims
func (i *Issuer) VerifyToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	//檢查Token是否已登出
	if i.denylist != nil {
		revoked, err := i.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

// Revoke 登出，token在原本到期前都不可再使用
func (i *Issuer) Revoke(ctx context.Context, claims *Claims) error {
	if i.denylist == nil {
		return errors.New("token revocation is not configured")
	}
	return i.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// ExtractBearer 只接受 "Bearer <token>"，其他格式回傳false
func ExtractBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
