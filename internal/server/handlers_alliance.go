package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createSelectionRequest struct {
	EventKey string `json:"event_key" binding:"required"`
}

func (h *Handler) createSelection(c *gin.Context) {
	var req createSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sel, err := h.alliance.Create(c.Request.Context(), req.EventKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sel)
}

func (h *Handler) getSelection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sel, err := h.alliance.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

type pickRequest struct {
	TeamNumber int `json:"team_number" binding:"required"`
}

func (h *Handler) pickTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req pickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sel, err := h.alliance.Pick(c.Request.Context(), id, req.TeamNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

func (h *Handler) declineTeam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req pickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sel, err := h.alliance.Decline(c.Request.Context(), id, req.TeamNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

type captainRequest struct {
	AllianceNumber int `json:"alliance_number" binding:"required"`
	TeamNumber     int `json:"team_number" binding:"required"`
}

func (h *Handler) seatCaptain(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req captainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sel, err := h.alliance.Captain(c.Request.Context(), id, req.AllianceNumber, req.TeamNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}
