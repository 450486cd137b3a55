package api

import (
	"io"
	"net/http"

	"github.com/ericogr/veilborn/internal/constants"
	"github.com/gin-gonic/gin"
)

// StreamMatch pushes match events to the client as server-sent events
// until the client disconnects.
func (h *MatchHandler) StreamMatch(c *gin.Context) {
	id, ok := matchID(c)
	if !ok {
		return
	}
	m, err := h.repo.GetMatchByPublicID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrMatchNotFound})
		return
	}
	if m.Player(playerID(c)) == nil {
		c.JSON(http.StatusForbidden, gin.H{constants.JSONKeyError: constants.ErrPlayerNotInThisMatch})
		return
	}
	if _, ok := c.Writer.(http.Flusher); !ok {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrStreamingNotSupported})
		return
	}

	events, unsubscribe := h.hub.Subscribe(id)
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-done:
			return false
		}
	})
}
