package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"gridscout/internal/picklist"
	"gridscout/internal/store"
)

type generateRequest struct {
	picklist.Request
	// Sync waits for the result instead of returning a job ID.
	Sync bool `json:"sync"`
}

func (h *Handler) generatePicklist(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.Request.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	if req.Sync {
		result, err := h.generator.Generate(c.Request.Context(), req.Request)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	jobID, err := h.generator.StartJob(req.Request)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

func (h *Handler) picklistStatus(c *gin.Context) {
	job, ok := h.generator.JobStatus(c.Param("jobID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) clearPicklistCache(c *gin.Context) {
	h.generator.ClearCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

type lockPicklistRequest struct {
	EventKey string          `json:"event_key" binding:"required"`
	Position string          `json:"position" binding:"required"`
	Picklist json.RawMessage `json:"picklist" binding:"required"`
}

func (h *Handler) lockPicklist(c *gin.Context) {
	var req lockPicklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.store.LockPicklist(c.Request.Context(), req.EventKey, req.Position, req.Picklist)
	if err != nil {
		h.fail(c, err)
		return
	}
	locked, err := h.store.GetLockedPicklist(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, locked)
}

func (h *Handler) listLockedPicklists(c *gin.Context) {
	locked, err := h.store.ListLockedPicklists(c.Request.Context(), c.Query("event_key"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if locked == nil {
		locked = []store.LockedPicklist{}
	}
	c.JSON(http.StatusOK, locked)
}

func (h *Handler) getLockedPicklist(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	locked, err := h.store.GetLockedPicklist(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, locked)
}

func (h *Handler) deleteLockedPicklist(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteLockedPicklist(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
