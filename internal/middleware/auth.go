package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"artboard/internal/config"
	"artboard/internal/models"
	"artboard/internal/repository"
	"artboard/internal/security"
)

// Auth requires a valid bearer token and loads the corresponding user row
// into the request context.
func Auth(cfg *config.AppConfig, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, status, reason := authenticate(c, cfg, users)
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": reason})
			return
		}

		c.Set("current_user", user)
		c.Next()
	}
}

// OptionalAuth loads the user when a bearer token is presented but lets
// anonymous requests through. Invalid tokens are still rejected so a client
// never silently falls back to the public view.
func OptionalAuth(cfg *config.AppConfig, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		user, status, reason := authenticate(c, cfg, users)
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": reason})
			return
		}

		c.Set("current_user", user)
		c.Next()
	}
}

func authenticate(c *gin.Context, cfg *config.AppConfig, users *repository.UserRepository) (models.User, int, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return models.User{}, http.StatusUnauthorized, "missing_token"
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
	if err != nil {
		return models.User{}, http.StatusUnauthorized, "invalid_token"
	}

	user, err := users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return models.User{}, http.StatusUnauthorized, "user_not_found"
	}

	if user.Status != models.UserStatusActive {
		return models.User{}, http.StatusForbidden, "user_inactive"
	}

	return user, 0, ""
}
