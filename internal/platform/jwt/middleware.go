// Package jwtmw は管理画面APIのBearerトークン認証を提供します。
package jwtmw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextSubject はトークンの subject（オペレーター名）を格納するコンテキストキーです。
const ContextSubject = "subject"

// ScopeBackOffice は管理画面APIへのアクセスを許可するスコープです。
const ScopeBackOffice = "backoffice"

// Claims はBearerトークンのクレームです。
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// ParseToken は署名・有効期限・スコープを検証してクレームを返します。HS256以外の署名は拒否します。
func ParseToken(tokenStr, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Scope != ScopeBackOffice {
		return nil, errors.New("token scope does not grant back office access")
	}
	return claims, nil
}

// AuthRequired returns a Gin middleware function that validates JWT tokens
// and restricts access to back office operators only.
// If secret is empty, authentication is disabled and every request passes.
func AuthRequired(secret string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		// 2. Parse and verify signature, expiry and scope
		claims, err := ParseToken(tokenStr, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// 3. Pass control to the next handler
		c.Set(ContextSubject, claims.Subject)
		c.Next()
	}
}
