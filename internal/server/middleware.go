package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/openstay/rentledger/internal/authscope"
)

const actorContextKey = "rentledger.actor"

// ActorMiddleware resolves the acting user from the gateway-injected headers.
// The API trusts its edge for authentication; this layer only carries
// identity and role for row scoping.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID == "" {
			c.Next()
			return
		}

		parsed, err := snowflake.ParseString(userID)
		if err != nil {
			AbortWithError(c, newValidationError("X-User-Id", "invalid_user_id", "invalid user id"))
			return
		}

		role := authscope.RoleOwner
		if strings.EqualFold(strings.TrimSpace(c.GetHeader("X-User-Role")), string(authscope.RoleAdmin)) {
			role = authscope.RoleAdmin
		}

		c.Set(actorContextKey, authscope.Actor{UserID: parsed, Role: role})
		c.Next()
	}
}

func actorFrom(c *gin.Context) (authscope.Actor, bool) {
	value, ok := c.Get(actorContextKey)
	if !ok {
		return authscope.Actor{}, false
	}
	actor, ok := value.(authscope.Actor)
	return actor, ok
}

func (s *Server) requireActor(c *gin.Context) (authscope.Actor, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		AbortWithError(c, authscope.ErrForbidden)
		return authscope.Actor{}, false
	}
	return actor, true
}

func (s *Server) requireAdmin(c *gin.Context) (authscope.Actor, bool) {
	actor, ok := s.requireActor(c)
	if !ok {
		return authscope.Actor{}, false
	}
	if actor.Role != authscope.RoleAdmin {
		AbortWithError(c, authscope.ErrForbidden)
		return authscope.Actor{}, false
	}
	return actor, true
}
