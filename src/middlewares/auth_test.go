package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticketbooth/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var secret = []byte("test-secret")

func signToken(t *testing.T, key []byte, method jwt.SigningMethod, sub, role string, ttl time.Duration) string {
	t.Helper()
	claims := &types.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func authRouter(cfg AuthConfig, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler)
	handlers := append([]gin.HandlerFunc{AuthMiddleware(cfg)}, extra...)
	handlers = append(handlers, func(ctx *gin.Context) {
		p := GetPrincipal(ctx)
		ctx.JSON(http.StatusOK, gin.H{"id": p.UserID.String(), "role": p.Role})
	})
	r.GET("/me", handlers...)
	return r
}

func get(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	uid := uuid.New()
	token := signToken(t, secret, jwt.SigningMethodHS256, uid.String(), "Customer", time.Hour)

	w := get(authRouter(AuthConfig{Secret: secret}), map[string]string{"Authorization": "Bearer " + token})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uid.String(), gjson.Get(w.Body.String(), "id").String())
	assert.Equal(t, "Customer", gjson.Get(w.Body.String(), "role").String())
}

func TestAuthMiddlewareRejects(t *testing.T) {
	uid := uuid.New().String()
	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"bad signature":  "Bearer " + signToken(t, []byte("other"), jwt.SigningMethodHS256, uid, "Customer", time.Hour),
		"expired":        "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, uid, "Customer", -time.Minute),
		"bad subject":    "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, "42", "Customer", time.Hour),
		"unknown role":   "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, uid, "Root", time.Hour),
		"garbage":        "Bearer not.a.token",
	}
	r := authRouter(AuthConfig{Secret: secret})
	for name, header := range cases {
		w := get(r, map[string]string{"Authorization": header})
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.False(t, gjson.Get(w.Body.String(), "success").Bool(), name)
	}
}

func TestAuthMiddlewareTrustedHeaders(t *testing.T) {
	uid := uuid.New()
	headers := map[string]string{"x-user-id": uid.String(), "x-user-role": "admin"}

	w := get(authRouter(AuthConfig{Secret: secret, TrustHeaders: true}), headers)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Admin", gjson.Get(w.Body.String(), "role").String())

	w = get(authRouter(AuthConfig{Secret: secret}), headers)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	uid := uuid.New().String()
	r := authRouter(AuthConfig{Secret: secret, TrustHeaders: true}, RequireRole(types.ROLE_ADMIN, types.ROLE_ORGANIZER))

	w := get(r, map[string]string{"x-user-id": uid, "x-user-role": "Customer"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Insufficient permissions", gjson.Get(w.Body.String(), "message").String())

	w = get(r, map[string]string{"x-user-id": uid, "x-user-role": "Organizer"})
	assert.Equal(t, http.StatusOK, w.Code)
}
