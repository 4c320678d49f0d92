package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gridscout/internal/store"
)

func pathYear(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		badRequest(c, errors.New("year must be numeric"))
		return 0, false
	}
	return year, true
}

func (h *Handler) getManual(c *gin.Context) {
	year, ok := pathYear(c)
	if !ok {
		return
	}
	m, err := h.manual.Get(c.Request.Context(), year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type putManualRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
}

func (h *Handler) putManual(c *gin.Context) {
	year, ok := pathYear(c)
	if !ok {
		return
	}
	var req putManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m := store.GameManual{Year: year, Title: req.Title, Content: req.Content}
	if err := h.manual.Save(c.Request.Context(), m); err != nil {
		h.fail(c, err)
		return
	}
	saved, err := h.manual.Get(c.Request.Context(), year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) extractManual(c *gin.Context) {
	year, ok := pathYear(c)
	if !ok {
		return
	}
	extraction, err := h.manual.Extract(c.Request.Context(), year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, extraction)
}

func (h *Handler) listArchives(c *gin.Context) {
	archives, err := h.archive.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if archives == nil {
		archives = []store.ArchivedEvent{}
	}
	c.JSON(http.StatusOK, archives)
}

type archiveRequest struct {
	Name string `json:"name"`
}

func (h *Handler) archiveEvent(c *gin.Context) {
	var req archiveRequest
	// The name is optional; an empty body is fine.
	_ = c.ShouldBindJSON(&req)

	ae, err := h.archive.Archive(c.Request.Context(), c.Param("key"), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ae)
}

func (h *Handler) restoreArchive(c *gin.Context) {
	id, ok := pathID(c, "key")
	if !ok {
		return
	}
	snapshot, err := h.archive.Restore(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) deleteArchive(c *gin.Context) {
	id, ok := pathID(c, "key")
	if !ok {
		return
	}
	if err := h.archive.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
