package api

import (
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/ericogr/veilborn/internal/constants"
	"github.com/gin-gonic/gin"
)

// ServeRoundArt serves the stored illustration of a round. URL format:
// /api/assets/rounds/<matchID>/<round>.png
func (h *MatchHandler) ServeRoundArt(c *gin.Context) {
	round, err := strconv.Atoi(assetName(c))
	if err != nil || round < 1 {
		c.Status(http.StatusNotFound)
		return
	}
	img, err := h.svc.RoundArt(c.Param("matchID"), round)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	writePNG(c, img)
}

// ServeCardArt serves a catalog card portrait, generating it on the first
// request. URL format: /api/assets/cards/<template key>.png
func (h *MatchHandler) ServeCardArt(c *gin.Context) {
	key := assetName(c)
	if key == "" {
		c.Status(http.StatusNotFound)
		return
	}
	img, err := h.svc.CardArt(c.Request.Context(), key)
	if err != nil {
		respondError(c, err, constants.ErrImageGenerationFailed)
		return
	}
	writePNG(c, img)
}

func assetName(c *gin.Context) string {
	file := strings.TrimPrefix(c.Param("file"), "/")
	return strings.ToLower(strings.TrimSuffix(file, path.Ext(file)))
}

func writePNG(c *gin.Context, img []byte) {
	c.Header(constants.CacheControlHeader, constants.CacheControlImmutable)
	c.Data(http.StatusOK, constants.ContentTypePNG, img)
}
