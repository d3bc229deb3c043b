package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/service/barns"
	"github.com/mamadbah2/telurku/internal/session"
	"github.com/mamadbah2/telurku/internal/view"
)

const barnNotFound = "Barn not found"

// BarnHandler serves the barn pages.
type BarnHandler struct {
	svc    *barns.Service
	store  session.Store
	guard  *session.Guard
	loc    *time.Location
	logger *zap.Logger
}

// NewBarnHandler constructs the barn HTTP handler.
func NewBarnHandler(svc *barns.Service, store session.Store, guard *session.Guard, loc *time.Location, logger *zap.Logger) *BarnHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BarnHandler{svc: svc, store: store, guard: guard, loc: loc, logger: logger}
}

// List returns the barns matching the search and status filters.
func (h *BarnHandler) List(c *gin.Context) {
	filter := models.BarnFilter{
		Search: c.Query("search"),
		Status: barns.ParseStatusFilter(c.Query("status")),
	}
	list, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"barns":   view.BarnRows(list, h.loc),
		"canEdit": principal(c).Role.CanWrite(),
	})
}

// Get returns a single barn.
func (h *BarnHandler) Get(c *gin.Context) {
	barn, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, barnNotFound, err)
		return
	}
	c.JSON(http.StatusOK, view.NewBarnRow(barn, h.loc))
}

// Stats returns the barn totals and the status distribution.
func (h *BarnHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":        stats,
		"alerts":       stats.AlertCount(),
		"distribution": view.StatusDistribution(stats),
	})
}

// View hands the barn over to the details page.
func (h *BarnHandler) View(c *gin.Context) {
	ctx := c.Request.Context()
	barn, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, barnNotFound, err)
		return
	}
	sid := sessionID(c)
	if err := session.PutJSON(ctx, h.store, sid, session.KeyCurrentBarn, barn); err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	if err := h.store.Set(ctx, sid, session.KeyViewBarnID, barn.ID); err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "barn-details"})
}

// Details shows the barn handed over by View along with its audit log.
// A bare viewBarnId, as left by the dashboard, is resolved against the backend.
func (h *BarnHandler) Details(c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(c)

	var barn models.Barn
	ok, err := session.GetJSON(ctx, h.store, sid, session.KeyCurrentBarn, &barn)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	id, hasID, err := h.store.Get(ctx, sid, session.KeyViewBarnID)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	if hasID && (!ok || barn.ID != id) {
		if barn, err = h.svc.Get(ctx, id); err != nil {
			respondError(c, h.logger, barnNotFound, err)
			return
		}
		ok = true
	}
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{
			Error:    "no barn selected",
			Banner:   view.NewBanner(view.ColorWarning, "No barn data found"),
			Redirect: RedirectBarns,
		})
		return
	}

	audit := []view.AuditRow{}
	if entries, err := h.svc.AuditLog(ctx, barn.ID); err != nil {
		h.logger.Info("audit log not available", zap.String("barn_id", barn.ID), zap.Error(err))
	} else {
		audit = view.AuditRows(entries, h.loc)
	}

	c.JSON(http.StatusOK, gin.H{
		"barn":    view.NewBarnRow(barn, h.loc),
		"audit":   audit,
		"canEdit": principal(c).Role.CanWrite(),
	})
}

// Audit returns the change history of a barn.
func (h *BarnHandler) Audit(c *gin.Context) {
	entries, err := h.svc.AuditLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit": view.AuditRows(entries, h.loc)})
}

// Edit hands the barn over to the form.
func (h *BarnHandler) Edit(c *gin.Context) {
	ctx := c.Request.Context()
	barn, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, barnNotFound, err)
		return
	}
	if err := session.PutJSON(ctx, h.store, sessionID(c), session.KeyEditBarn, barn); err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "barn-form"})
}

type barnForm struct {
	Title    string           `json:"title"`
	Barn     *models.Barn     `json:"barn,omitempty"`
	Profiles []models.Profile `json:"profiles"`
	Statuses []string         `json:"statuses"`
}

// Form returns what the create/edit form needs. The edit hand-off is consumed.
func (h *BarnHandler) Form(c *gin.Context) {
	ctx := c.Request.Context()

	var barn models.Barn
	editing, err := session.TakeJSON(ctx, h.store, sessionID(c), session.KeyEditBarn, &barn)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	profiles, err := h.svc.Profiles(ctx)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}

	form := barnForm{
		Title:    "Add Barn",
		Profiles: profiles,
		Statuses: []string{string(models.StatusOK), string(models.StatusWarning), string(models.StatusAlert)},
	}
	if editing {
		form.Title = "Edit Barn"
		form.Barn = &barn
	}
	c.JSON(http.StatusOK, form)
}

type barnSubmission struct {
	ID string `json:"id"`
	models.BarnInput
}

// Submit creates or updates a barn. Concurrent submissions from the same
// session are rejected until the first one completes.
func (h *BarnHandler) Submit(c *gin.Context) {
	var req barnSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid barn data")
		return
	}
	if id := c.Param("id"); id != "" {
		req.ID = id
	}

	sid := sessionID(c)
	release, ok := h.guard.Acquire(sid + ":barn-form")
	if !ok {
		respondError(c, h.logger, "", ErrDuplicateSubmit)
		return
	}
	defer release()

	ctx := c.Request.Context()
	barn, created, err := h.svc.Save(ctx, req.ID, req.BarnInput)
	if err != nil {
		respondError(c, h.logger, barnNotFound, err)
		return
	}
	if err := h.store.Delete(ctx, sid, session.KeyEditBarn); err != nil {
		h.logger.Warn("failed to clear barn form hand-off", zap.Error(err))
	}

	if created {
		respondSaved(c, http.StatusCreated, "Barn created successfully", RedirectBarns, barn)
		return
	}
	respondSaved(c, http.StatusOK, "Barn updated successfully", RedirectBarns, barn)
}

// ConfirmDelete returns the confirmation prompt for a delete.
func (h *BarnHandler) ConfirmDelete(c *gin.Context) {
	barn, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, barnNotFound, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": barn.ID, "message": barns.DeleteConfirmation(barn.Name)})
}

// Delete removes a barn.
func (h *BarnHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, barnNotFound, err)
		return
	}
	c.JSON(http.StatusOK, actionResponse{Banner: view.NewBanner(view.ColorSuccess, "Barn deleted successfully")})
}
