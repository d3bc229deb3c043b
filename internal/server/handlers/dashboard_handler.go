package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/service/alerts"
	"github.com/mamadbah2/telurku/internal/service/barns"
	"github.com/mamadbah2/telurku/internal/service/live"
	"github.com/mamadbah2/telurku/internal/service/reporting"
	"github.com/mamadbah2/telurku/internal/session"
	"github.com/mamadbah2/telurku/internal/view"
)

const streamKeepAlive = 25 * time.Second

// DashboardHandler serves the dashboard, its exports, and the live stream.
type DashboardHandler struct {
	reporting *reporting.Service
	barns     *barns.Service
	alerts    *alerts.Service
	hub       *live.Hub
	store     session.Store
	loc       *time.Location
	logger    *zap.Logger
}

// NewDashboardHandler constructs the dashboard HTTP handler.
func NewDashboardHandler(rep *reporting.Service, barnSvc *barns.Service, alertSvc *alerts.Service, hub *live.Hub, store session.Store, loc *time.Location, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{
		reporting: rep,
		barns:     barnSvc,
		alerts:    alertSvc,
		hub:       hub,
		store:     store,
		loc:       loc,
		logger:    logger,
	}
}

type recentView struct {
	Barns      []view.BarnRow   `json:"barns"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	Pagination *view.Pagination `json:"pagination,omitempty"`
}

func (h *DashboardHandler) recent(p models.Page[models.Barn]) recentView {
	return recentView{
		Barns:      view.BarnRows(p.Items, h.loc),
		Total:      p.Total,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Pagination: view.PageWindow(p.Page, p.TotalPages),
	}
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Dashboard returns the full dashboard aggregate.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	rng := reporting.ParseDateRange(c.Query("range"))
	d, err := h.reporting.Dashboard(c.Request.Context(), rng, pageParam(c))
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	p := principal(c)
	c.JSON(http.StatusOK, gin.H{
		"stats":          d.Stats,
		"alertIndicator": d.AlertIndicator,
		"distribution":   view.StatusDistribution(d.Stats),
		"recent":         h.recent(d.Recent),
		"chart":          d.Chart,
		"user":           view.NewUserInfo(p.UserID, p.Email, p.Role),
		"exportEnabled":  h.reporting.ExportEnabled(),
		"generatedAt":    d.GeneratedAt,
	})
}

// Recent returns one page of the recent barns table.
func (h *DashboardHandler) Recent(c *gin.Context) {
	page, err := h.barns.RecentPage(c.Request.Context(), pageParam(c), reporting.RecentLimit)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, h.recent(page))
}

// Chart returns the activity chart for the requested range.
func (h *DashboardHandler) Chart(c *gin.Context) {
	chart, err := h.reporting.ActivityChart(c.Request.Context(), reporting.ParseDateRange(c.Query("range")))
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

// Alerts runs an alert check for the in-app notification.
func (h *DashboardHandler) Alerts(c *gin.Context) {
	n, ok, err := h.alerts.Check(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"alert": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": n})
}

// ViewBarn sends the user to the details page for a barn in the recent table.
func (h *DashboardHandler) ViewBarn(c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(c)
	if err := h.store.Delete(ctx, sid, session.KeyCurrentBarn); err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	if err := h.store.Set(ctx, sid, session.KeyViewBarnID, c.Param("id")); err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "barn-details"})
}

// QuickEditForm returns the current counters and status of a barn.
func (h *DashboardHandler) QuickEditForm(c *gin.Context) {
	barn, err := h.barns.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, barnNotFound, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":   barn.ID,
		"name": barn.Name,
		"form": barns.QuickEdit{
			Chickens:  barn.ChickenCount(),
			EggsToday: barn.EggCount(),
			Status:    barn.Status,
		},
	})
}

// QuickEdit saves the counters and status of a barn.
func (h *DashboardHandler) QuickEdit(c *gin.Context) {
	var edit barns.QuickEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		badRequest(c, "Invalid barn data")
		return
	}
	barn, err := h.barns.ApplyQuickEdit(c.Request.Context(), c.Param("id"), edit)
	if err != nil {
		respondError(c, h.logger, barnNotFound, err)
		return
	}
	c.JSON(http.StatusOK, actionResponse{
		Banner: view.NewBanner(view.ColorSuccess, "Barn updated successfully"),
		Data:   view.NewBarnRow(barn, h.loc),
	})
}

// ExportCSV downloads the dashboard export.
func (h *DashboardHandler) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	filename, err := h.reporting.WriteCSV(c.Request.Context(), reporting.ParseDateRange(c.Query("range")), &buf)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportSheet appends the dashboard export to the configured spreadsheet.
func (h *DashboardHandler) ExportSheet(c *gin.Context) {
	rows, err := h.reporting.ExportToSheet(c.Request.Context(), reporting.ParseDateRange(c.Query("range")))
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, actionResponse{
		Banner: view.Bannerf(view.ColorSuccess, "Exported %d rows to Google Sheets", rows),
		Data:   gin.H{"rows": rows},
	})
}

// Snapshots lists archived daily snapshots.
func (h *DashboardHandler) Snapshots(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if err != nil || limit < 1 {
		limit = 30
	}
	snapshots, err := h.reporting.Snapshots(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

// Stream pushes refresh and alert events to the browser as server-sent
// events until the client goes away.
func (h *DashboardHandler) Stream(c *gin.Context) {
	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("ready", gin.H{"viewers": h.hub.Subscribers()})
	c.Writer.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent(ev.Type, ev)
			c.Writer.Flush()
		case <-keepAlive.C:
			_, _ = c.Writer.WriteString(": keep-alive\n\n")
			c.Writer.Flush()
		}
	}
}
