package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/cache"
	"storefront/jwt"
	"storefront/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T) (*gin.Engine, *jwt.Issuer) {
	t.Helper()
	issuer, err := jwt.NewIssuer("middleware-secret", time.Hour, cache.NewLocalDenylist())
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestID(), AuthMiddleware(issuer))
	r.GET("/whoami", func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"loggedIn": ok, "id": identity.ID.Hex()})
	})
	r.GET("/private", CheckLoginMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/admin", CheckAdminPermissionMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, issuer
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAttachesIdentity(t *testing.T) {
	r, issuer := newEngine(t)
	id := primitive.NewObjectID()
	token, _, err := issuer.GenerateToken(models.Identity{ID: id, Role: models.RoleClient})
	require.NoError(t, err)

	w := do(r, "/whoami", token)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		LoggedIn bool   `json:"loggedIn"`
		ID       string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.LoggedIn)
	assert.Equal(t, id.Hex(), body.ID)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = do(r, "/whoami", "garbage")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.LoggedIn)
}

func TestGates(t *testing.T) {
	r, issuer := newEngine(t)
	client, _, err := issuer.GenerateToken(models.Identity{ID: primitive.NewObjectID(), Role: models.RoleClient})
	require.NoError(t, err)
	admin, _, err := issuer.GenerateToken(models.Identity{ID: primitive.NewObjectID(), Role: models.RoleAdmin})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/private", "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/private", client).Code)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", client).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
}

func TestRevokedTokenIsAnonymous(t *testing.T) {
	r, issuer := newEngine(t)
	token, _, err := issuer.GenerateToken(models.Identity{ID: primitive.NewObjectID(), Role: models.RoleClient})
	require.NoError(t, err)
	claims, err := issuer.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	require.NoError(t, issuer.Revoke(context.Background(), claims))

	assert.Equal(t, http.StatusUnauthorized, do(r, "/private", token).Code)
}

func TestRequestIDPassthrough(t *testing.T) {
	r, _ := newEngine(t)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not a uuid", w.Header().Get(RequestIDHeader))
}
