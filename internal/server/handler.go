// Package server exposes GridScout over a REST API: dataset building,
// picklist generation, alliance selection, sheet configuration, game
// manuals, and event archival.
package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gridscout/internal/alliance"
	"gridscout/internal/archive"
	"gridscout/internal/dataset"
	"gridscout/internal/logging"
	"gridscout/internal/manual"
	"gridscout/internal/picklist"
	"gridscout/internal/sheets"
	"gridscout/internal/statbotics"
	"gridscout/internal/store"
	"gridscout/internal/tba"
)

// Handler carries the service dependencies behind the API.
type Handler struct {
	repo      *dataset.Repository
	builder   *dataset.Builder
	generator *picklist.Generator
	alliance  *alliance.Service
	manual    *manual.Service
	archive   *archive.Service
	store     *store.Store
	// sheetReader is nil when Google Sheets credentials are not configured;
	// local workbook import still works without it.
	sheetReader sheets.TabReader
	logger      *zap.Logger
}

// NewHandler wires the API handler.
func NewHandler(
	repo *dataset.Repository,
	builder *dataset.Builder,
	generator *picklist.Generator,
	allianceSvc *alliance.Service,
	manualSvc *manual.Service,
	archiveSvc *archive.Service,
	st *store.Store,
	sheetReader sheets.TabReader,
) *Handler {
	return &Handler{
		repo:        repo,
		builder:     builder,
		generator:   generator,
		alliance:    allianceSvc,
		manual:      manualSvc,
		archive:     archiveSvc,
		store:       st,
		sheetReader: sheetReader,
		logger:      logging.Get(logging.CategoryAPI),
	}
}

// RegisterRoutes mounts every API route on the group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.health)

	rg.POST("/dataset/build", h.buildDataset)
	rg.GET("/dataset/:eventKey", h.getDataset)
	rg.GET("/dataset/:eventKey/metrics", h.getMetrics)

	rg.POST("/picklist/generate", h.generatePicklist)
	rg.GET("/picklist/status/:jobID", h.picklistStatus)
	rg.POST("/picklist/clear-cache", h.clearPicklistCache)
	rg.POST("/picklist/lock", h.lockPicklist)
	rg.GET("/picklist/locked", h.listLockedPicklists)
	rg.GET("/picklist/locked/:id", h.getLockedPicklist)
	rg.DELETE("/picklist/locked/:id", h.deleteLockedPicklist)

	rg.POST("/alliance/selection", h.createSelection)
	rg.GET("/alliance/selection/:id", h.getSelection)
	rg.POST("/alliance/selection/:id/pick", h.pickTeam)
	rg.POST("/alliance/selection/:id/decline", h.declineTeam)
	rg.POST("/alliance/selection/:id/captain", h.seatCaptain)

	rg.GET("/sheets/config/:eventKey", h.getSheetConfig)
	rg.PUT("/sheets/config/:eventKey", h.putSheetConfig)
	rg.DELETE("/sheets/config/:eventKey", h.deleteSheetConfig)
	rg.POST("/sheets/import", h.importWorkbook)

	rg.GET("/manual/:year", h.getManual)
	rg.PUT("/manual/:year", h.putManual)
	rg.POST("/manual/:year/extract", h.extractManual)

	rg.GET("/archive", h.listArchives)
	rg.POST("/archive/:key", h.archiveEvent)
	rg.POST("/archive/:key/restore", h.restoreArchive)
	rg.DELETE("/archive/:key", h.deleteArchive)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps service errors onto HTTP statuses with a uniform error body.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dataset.ErrNoDataset),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, tba.ErrNotFound),
		errors.Is(err, statbotics.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, alliance.ErrNotPickable),
		errors.Is(err, alliance.ErrCompleted),
		errors.Is(err, alliance.ErrNoCaptainTurn):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, errors.New(name+" must be numeric"))
		return 0, false
	}
	return id, true
}
