package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the only role the API issues tokens for.
const AdminRole = "admin"

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 12 * time.Hour

// Auth signs and checks the bearer tokens guarding mutating endpoints.
type Auth struct {
	secret []byte
	now    func() time.Time
}

// NewAuth returns an Auth signing with secret.
func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret), now: time.Now}
}

// Enabled reports whether a signing secret is configured. Without one no
// token can be issued and guarded routes are refused.
func (a *Auth) Enabled() bool { return len(a.secret) > 0 }

func (a *Auth) GenerateToken(subject, role string) (string, error) {
	if !a.Enabled() {
		return "", errors.New("token signing is not configured")
	}
	now := a.now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Auth) ValidateToken(tokenStr string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RequireRole ensures a valid JWT carrying the given role is present
func (a *Auth) RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication is not configured"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		claims, err := a.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		if role, ok := claims["role"].(string); !ok || role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}

		c.Set("subject", claims["sub"])
		c.Set("role", claims["role"])
		c.Next()
	}
}

// RequireAdmin is RequireRole(AdminRole).
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return a.RequireRole(AdminRole)
}
