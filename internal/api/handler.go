package api

import (
	"errors"
	"net/http"

	"github.com/ericogr/veilborn/internal/broadcast"
	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/logging"
	"github.com/ericogr/veilborn/internal/service"
	"github.com/ericogr/veilborn/internal/storage"
	"github.com/gin-gonic/gin"
)

// MatchHandler groups all match-related HTTP handlers.
type MatchHandler struct {
	svc  *service.Service
	repo storage.Repository
	hub  *broadcast.Hub
}

func NewMatchHandler(svc *service.Service, repo storage.Repository, hub *broadcast.Hub) *MatchHandler {
	return &MatchHandler{svc: svc, repo: repo, hub: hub}
}

// NewRouter wires every route under /api. Match routes require a player
// identity; assets stay public so image tags can load them.
func NewRouter(h *MatchHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET(constants.RouteCards, h.ListCards)
		apiRoutes.GET(constants.RouteLeaderboard, h.ListLeaderboard)
		apiRoutes.GET(constants.RouteVersion, Version)
		apiRoutes.GET(constants.RouteCardArt, h.ServeCardArt)
		apiRoutes.GET(constants.RouteRoundArt, h.ServeRoundArt)

		protected := apiRoutes.Group("")
		protected.Use(PlayerIdentity())

		protected.GET(constants.RouteMyCards, h.ListMyCards)
		protected.POST(constants.RouteMatches, h.CreateMatch)
		protected.GET(constants.RouteMatchByID, h.GetMatch)
		protected.POST(constants.RouteMatchJoin, h.JoinMatch)
		protected.POST(constants.RouteMatchStart, h.StartMatch)
		protected.POST(constants.RouteMatchEnd, h.EndMatch)
		protected.POST(constants.RouteMatchPlace, h.SubmitPlacements)
		protected.GET(constants.RouteMatchRound, h.GetRound)
		protected.GET(constants.RouteMatchStream, h.StreamMatch)
	}
	return router
}

// respondError maps service errors to HTTP statuses. Unknown errors are
// logged and reported with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status, msg := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		status, msg = http.StatusNotFound, constants.ErrMatchNotFound
	case errors.Is(err, service.ErrPlayerNotInMatch), errors.Is(err, service.ErrNotParticipant):
		status, msg = http.StatusForbidden, constants.ErrPlayerNotInThisMatch
	case errors.Is(err, service.ErrCardNotOwned):
		status, msg = http.StatusForbidden, constants.ErrCardNotOwned
	case errors.Is(err, service.ErrArtworkNotFound), errors.Is(err, service.ErrUnknownCard):
		status, msg = http.StatusNotFound, constants.ErrArtworkNotFound
	case errors.Is(err, service.ErrMatchFull):
		status, msg = http.StatusConflict, constants.ErrMatchFull
	case errors.Is(err, service.ErrAlreadyInMatch):
		status, msg = http.StatusConflict, constants.ErrAlreadyInMatch
	case errors.Is(err, service.ErrNotEnoughPlayers):
		status, msg = http.StatusConflict, constants.ErrNotEnoughPlayers
	case errors.Is(err, service.ErrMatchAlreadyStarted):
		status, msg = http.StatusConflict, constants.ErrMatchAlreadyStarted
	case errors.Is(err, service.ErrMatchNotInProgress):
		status, msg = http.StatusConflict, constants.ErrMatchNotInProgress
	case errors.Is(err, service.ErrPlacementsLocked):
		status, msg = http.StatusConflict, constants.ErrPlacementsLocked
	case errors.Is(err, service.ErrAlreadySubmitted):
		status, msg = http.StatusConflict, constants.ErrAlreadySubmitted
	case errors.Is(err, service.ErrInvalidPlacement):
		status, msg = http.StatusBadRequest, constants.ErrInvalidPlacement
	case errors.Is(err, service.ErrInsufficientMana):
		status, msg = http.StatusBadRequest, constants.ErrInsufficientMana
	case errors.Is(err, service.ErrCardDormant):
		status, msg = http.StatusBadRequest, constants.ErrCardDormant
	case errors.Is(err, service.ErrDisplayNameTooLong):
		status, msg = http.StatusBadRequest, constants.ErrDisplayNameExceeds
	case errors.Is(err, service.ErrMatchNameTooLong):
		status, msg = http.StatusBadRequest, constants.ErrMatchNameExceeds
	default:
		logging.Error(fallback, err, logging.Fields{constants.LogFieldMatchID: c.Param("matchID")})
		c.JSON(status, gin.H{constants.JSONKeyError: msg})
		return
	}
	c.JSON(status, gin.H{constants.JSONKeyError: msg, constants.JSONKeyMessage: err.Error()})
}
