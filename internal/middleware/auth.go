package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/internal/service"
	"github.com/git-mahad/group-chat/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// RequireAuth validates the Bearer token on the request and loads the actor
// identity into the gin context.
func RequireAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}

		identity, err := auth.Resolve(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextUsername, identity.Name)
		c.Set(ContextRole, string(identity.Role))
		c.Next()
	}
}

// GetIdentity reads the resolved actor identity from the gin context.
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return domain.Identity{}, false
	}
	name := c.GetString(ContextUsername)
	role := c.GetString(ContextRole)
	return domain.Identity{
		UserID: userID.(uint),
		Name:   name,
		Role:   domain.Role(role),
	}, true
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
