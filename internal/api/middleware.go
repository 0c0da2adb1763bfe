package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/authz"
	"github.com/thibovi/rebilt-backend/internal/models"
	"github.com/thibovi/rebilt-backend/internal/services"
)

// Context keys set by the auth middlewares
const (
	ctxUserID    = "userId"
	ctxRole      = "role"
	ctxCompanyID = "companyId"
)

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *services.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxRole, string(claims.Role))
	c.Set(ctxCompanyID, claims.CompanyID)
}

// OptionalAuthMiddleware parses a bearer token if present and sets its claims into context.
// It never rejects the request.
func OptionalAuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if claims, err := tokens.Parse(raw); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// AuthMiddleware enforces a valid token
func AuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Authorization header required"})
			return
		}
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid authorization format"})
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			log.Printf("[AuthMiddleware] token invalid: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid token", Message: err.Error()})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// RequirePolicy checks the caller's role against the route pattern and method.
// Must run after AuthMiddleware.
func RequirePolicy(enforcer *authz.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.Role(c.GetString(ctxRole))
		ok, err := enforcer.Allow(role, c.FullPath(), c.Request.Method)
		if err != nil {
			log.Printf("[RequirePolicy] %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Authorization check failed"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "Forbidden",
				Message: "role " + string(role) + " may not " + c.Request.Method + " " + c.FullPath(),
			})
			return
		}
		c.Next()
	}
}
