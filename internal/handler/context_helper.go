package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/progreso-dashboard/internal/middleware"
	"github.com/noah-isme/progreso-dashboard/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext identifies the session owner; the subject id wins over the email.
func actorFromContext(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	if claims.UserID != "" {
		return claims.UserID
	}
	return claims.Email
}

func tokenFromContext(c *gin.Context) string {
	return c.GetString(middleware.ContextTokenKey)
}

func withMeta(c *gin.Context, hit bool) map[string]interface{} {
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return meta
}
