package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type tokenRequest struct {
	UserID string `json:"user_id"`
}

// issueToken exchanges a provisioned user id for a short-lived HS256 session
// token. The demo flow does not require tokens; the /api group only checks
// them when AUTH_REQUIRED is enabled.
func (a *App) issueToken(c *gin.Context) {
	if strings.TrimSpace(a.cfg.JWTSecret) == "" {
		writeError(c, http.StatusServiceUnavailable, "Token signing is not configured")
		return
	}

	var payload tokenRequest
	if !mustJSON(c, &payload) {
		return
	}
	userID := strings.TrimSpace(payload.UserID)
	if userID == "" {
		writeError(c, http.StatusBadRequest, "user_id is required")
		return
	}

	profile, err := a.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to load user")
		return
	}
	if profile == nil {
		writeError(c, http.StatusUnauthorized, "Unknown user ID")
		return
	}

	ttl := a.cfg.AuthTokenTTLMinutes
	if ttl <= 0 {
		ttl = 60
	}
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(time.Duration(ttl) * time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.cfg.JWTSecret))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to sign token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      signed,
		"expires_at": now.Add(time.Duration(ttl) * time.Minute).Format(time.RFC3339),
	})
}

func (a *App) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}
		tokenString := strings.TrimSpace(authHeader[len("Bearer "):])
		if tokenString == "" {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(a.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(c, http.StatusUnauthorized, "Invalid bearer token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeError(c, http.StatusUnauthorized, "Invalid token payload")
			return
		}
		sub, _ := claims["sub"].(string)
		if strings.TrimSpace(sub) == "" {
			writeError(c, http.StatusUnauthorized, "Token subject missing")
			return
		}

		c.Set("authSubject", strings.TrimSpace(sub))
		c.Next()
	}
}
