package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gridscout/internal/dataset"
	"gridscout/internal/sheets"
	"gridscout/internal/store"
)

type buildDatasetRequest struct {
	EventKey string `json:"event_key" binding:"required"`
	Year     int    `json:"year" binding:"required"`
	// WorkbookPath imports scouting rows from a local .xlsx instead of the
	// event's configured Google spreadsheet.
	WorkbookPath string `json:"workbook_path"`
	MatchTab     string `json:"match_tab"`
	SuperTab     string `json:"super_tab"`
}

func (h *Handler) buildDataset(c *gin.Context) {
	var req buildDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	scout, err := h.scoutingSource(c, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ds, err := h.builder.Build(c.Request.Context(), req.EventKey, req.Year, scout)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

// scoutingSource picks the scouting input for a build: an explicit workbook
// wins, then the event's sheet configuration, then none.
func (h *Handler) scoutingSource(c *gin.Context, req buildDatasetRequest) (dataset.ScoutingSource, error) {
	src, err := sheets.ResolveSource(c.Request.Context(), h.store, h.sheetReader,
		req.EventKey, req.WorkbookPath, req.MatchTab, req.SuperTab)
	if err != nil || src == nil {
		return nil, err
	}
	return src, nil
}

func (h *Handler) getDataset(c *gin.Context) {
	ds, err := h.repo.Load(c.Param("eventKey"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (h *Handler) getMetrics(c *gin.Context) {
	ds, err := h.repo.Load(c.Param("eventKey"))
	if err != nil {
		h.fail(c, err)
		return
	}
	teams := dataset.Aggregate(ds)
	c.JSON(http.StatusOK, gin.H{
		"event_key":    ds.EventKey,
		"teams":        teams,
		"metric_names": dataset.MetricNames(teams),
	})
}

func (h *Handler) getSheetConfig(c *gin.Context) {
	cfg, err := h.store.GetSheetConfig(c.Request.Context(), c.Param("eventKey"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type sheetConfigRequest struct {
	SpreadsheetID string `json:"spreadsheet_id" binding:"required"`
	MatchTab      string `json:"match_tab"`
	SuperTab      string `json:"super_tab"`
}

func (h *Handler) putSheetConfig(c *gin.Context) {
	var req sheetConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cfg := store.SheetConfig{
		EventKey:      c.Param("eventKey"),
		SpreadsheetID: req.SpreadsheetID,
		MatchTab:      req.MatchTab,
		SuperTab:      req.SuperTab,
	}
	if err := h.store.UpsertSheetConfig(c.Request.Context(), cfg); err != nil {
		h.fail(c, err)
		return
	}
	saved, err := h.store.GetSheetConfig(c.Request.Context(), cfg.EventKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) deleteSheetConfig(c *gin.Context) {
	if err := h.store.DeleteSheetConfig(c.Request.Context(), c.Param("eventKey")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type importWorkbookRequest struct {
	EventKey     string `json:"event_key" binding:"required"`
	WorkbookPath string `json:"workbook_path" binding:"required"`
	MatchTab     string `json:"match_tab"`
	SuperTab     string `json:"super_tab"`
}

// importWorkbook replaces the scouting rows of an existing dataset from a
// local .xlsx export.
func (h *Handler) importWorkbook(c *gin.Context) {
	var req importWorkbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	source := sheets.NewWorkbookSource(req.WorkbookPath, req.MatchTab, req.SuperTab)
	ds, err := h.builder.Rescout(c.Request.Context(), req.EventKey, source)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}
