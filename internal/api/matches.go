package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateMatchPayload struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
}

type JoinMatchPayload struct {
	DisplayName string `json:"display_name"`
}

type PlacementsPayload struct {
	Placements []service.PlacementRequest `json:"placements"`
}

func (h *MatchHandler) writeMatch(c *gin.Context, status int, m *game.Match, extra gin.H) {
	out, err := MarshalIntoSnakeTimestamps(m)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedEncodeMatch})
		return
	}
	body := gin.H{"match": out}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// CreateMatch opens a match seated by the caller.
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	var req CreateMatchPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	m, err := h.svc.CreateMatch(playerID(c), req.DisplayName, req.Name)
	if err != nil {
		respondError(c, err, constants.ErrFailedCreateMatch)
		return
	}
	h.writeMatch(c, http.StatusCreated, m, nil)
}

// JoinMatch takes the second seat.
func (h *MatchHandler) JoinMatch(c *gin.Context) {
	id, ok := matchID(c)
	if !ok {
		return
	}
	var req JoinMatchPayload
	// An empty body is allowed; the player id doubles as display name.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
			return
		}
	}
	m, err := h.svc.JoinMatch(id, playerID(c), req.DisplayName)
	if err != nil {
		respondError(c, err, constants.ErrFailedUpdateMatch)
		return
	}
	h.writeMatch(c, http.StatusOK, m, nil)
}

func (h *MatchHandler) StartMatch(c *gin.Context) {
	id, ok := matchID(c)
	if !ok {
		return
	}
	m, err := h.svc.StartMatch(id, playerID(c))
	if err != nil {
		respondError(c, err, constants.ErrFailedUpdateMatch)
		return
	}
	h.writeMatch(c, http.StatusOK, m, nil)
}

// EndMatch resigns the caller.
func (h *MatchHandler) EndMatch(c *gin.Context) {
	id, ok := matchID(c)
	if !ok {
		return
	}
	m, err := h.svc.EndMatch(id, playerID(c))
	if err != nil {
		respondError(c, err, constants.ErrFailedEndMatch)
		return
	}
	h.writeMatch(c, http.StatusOK, m, nil)
}

// SubmitPlacements stores the caller's hidden board. The response carries
// the round record when this submission completed the round.
func (h *MatchHandler) SubmitPlacements(c *gin.Context) {
	id, ok := matchID(c)
	if !ok {
		return
	}
	var req PlacementsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	m, rec, err := h.svc.SubmitPlacements(c.Request.Context(), id, playerID(c), req.Placements)
	if err != nil {
		respondError(c, err, constants.ErrFailedStorePlacements)
		return
	}
	extra := gin.H{"resolved": rec != nil}
	if rec != nil {
		out, err := MarshalIntoSnakeTimestamps(rec)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedEncodeMatch})
			return
		}
		extra[constants.JSONKeyRound] = out
	}
	h.writeMatch(c, http.StatusOK, m, extra)
}

// GetMatch returns the match, the caller's own placements for the current
// round and every resolved round so far.
func (h *MatchHandler) GetMatch(c *gin.Context) {
	id, ok := matchID(c)
	if !ok {
		return
	}
	m, err := h.repo.GetMatchByPublicID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrMatchNotFound})
		return
	}
	mine, err := h.svc.PlayerPlacements(m, playerID(c))
	if err != nil {
		respondError(c, err, constants.ErrFailedEncodeMatch)
		return
	}
	rounds, err := h.repo.ListRoundRecords(m.ID)
	if err != nil {
		respondError(c, err, constants.ErrFailedEncodeMatch)
		return
	}
	roundsOut, err := MarshalIntoSnakeTimestamps(rounds)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedEncodeMatch})
		return
	}
	h.writeMatch(c, http.StatusOK, m, gin.H{"my_placements": mine, "rounds": roundsOut})
}

// GetRound returns one resolved round.
func (h *MatchHandler) GetRound(c *gin.Context) {
	id, ok := matchID(c)
	if !ok {
		return
	}
	round, err := strconv.Atoi(c.Param("round"))
	if err != nil || round < 1 {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRound})
		return
	}
	m, err := h.repo.GetMatchByPublicID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrMatchNotFound})
		return
	}
	rec, err := h.repo.GetRoundRecord(m.ID, round)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrRoundNotFound})
		return
	}
	if err != nil {
		respondError(c, err, constants.ErrRoundNotFound)
		return
	}
	out, err := MarshalIntoSnakeTimestamps(rec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedEncodeMatch})
		return
	}
	c.JSON(http.StatusOK, out)
}
