package middlewares

import (
	"fmt"
	"log"
	"strings"

	"ticketbooth/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const principalKey = "principal"

type AuthConfig struct {
	Secret []byte
	// TrustHeaders accepts x-user-id / x-user-role set by an upstream gateway.
	TrustHeaders bool
}

func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if cfg.TrustHeaders {
			if principal, ok := principalFromHeaders(ctx); ok {
				ctx.Set(principalKey, principal)
				ctx.Next()
				return
			}
		}

		bearerToken := ctx.Request.Header.Get("Authorization")
		reqToken, found := strings.CutPrefix(bearerToken, "Bearer ")
		if !found || strings.TrimSpace(reqToken) == "" {
			ctx.Error(types.NewUnauthorizedError("User not authenticated"))
			ctx.Abort()
			return
		}
		principal, err := ParseToken(cfg.Secret, strings.TrimSpace(reqToken))
		if err != nil {
			log.Printf("token error: %s\n", err.Error())
			ctx.Error(types.NewUnauthorizedError("Invalid or expired token").Wrap(err))
			ctx.Abort()
			return
		}
		ctx.Set(principalKey, principal)
		ctx.Next()
	}
}

func ParseToken(secret []byte, raw string) (types.Principal, error) {
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return types.Principal{}, err
	}
	if !tkn.Valid {
		return types.Principal{}, jwt.ErrSignatureInvalid
	}
	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return types.Principal{}, fmt.Errorf("invalid subject: %w", err)
	}
	role, ok := types.ParseRole(claims.Role)
	if !ok {
		return types.Principal{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return types.Principal{UserID: uid, Role: role}, nil
}

func principalFromHeaders(ctx *gin.Context) (types.Principal, bool) {
	uid, err := uuid.Parse(ctx.GetHeader("x-user-id"))
	if err != nil {
		return types.Principal{}, false
	}
	role, ok := types.ParseRole(ctx.GetHeader("x-user-role"))
	if !ok {
		return types.Principal{}, false
	}
	return types.Principal{UserID: uid, Role: role}, true
}

// GetPrincipal returns the caller set by AuthMiddleware, or the zero Principal.
func GetPrincipal(ctx *gin.Context) types.Principal {
	if v, ok := ctx.Get(principalKey); ok {
		if principal, ok := v.(types.Principal); ok {
			return principal
		}
	}
	return types.Principal{}
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal := GetPrincipal(ctx)
		for _, role := range roles {
			if principal.Is(role) {
				ctx.Next()
				return
			}
		}
		ctx.Error(types.NewForbiddenError("Insufficient permissions"))
		ctx.Abort()
	}
}
