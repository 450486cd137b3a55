package api

import (
	"net/http"
	"strings"

	"github.com/ericogr/veilborn/internal/constants"
	"github.com/gin-gonic/gin"
)

// PlayerIdentity reads the player id forwarded by the auth proxy and
// injects it into the context.
func PlayerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(constants.HeaderPlayerID))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrPlayerIDRequired})
			return
		}
		if !playerIDRegex.MatchString(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidPlayerID})
			return
		}
		c.Set(constants.ContextKeyPlayerID, id)
		c.Next()
	}
}

func playerID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyPlayerID)
}

// matchID validates the :matchID route param and writes a 400 when it is
// malformed.
func matchID(c *gin.Context) (string, bool) {
	id := normalizeMatchID(c.Param("matchID"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidMatchID})
		return "", false
	}
	return id, true
}
