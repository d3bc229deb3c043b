package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/service/feed"
	"github.com/mamadbah2/telurku/internal/session"
	"github.com/mamadbah2/telurku/internal/view"
)

const feedNotFound = "Feed record not found"

// FeedHandler serves the feed management pages.
type FeedHandler struct {
	svc    *feed.Service
	store  session.Store
	guard  *session.Guard
	loc    *time.Location
	logger *zap.Logger
}

// NewFeedHandler constructs the feed HTTP handler.
func NewFeedHandler(svc *feed.Service, store session.Store, guard *session.Guard, loc *time.Location, logger *zap.Logger) *FeedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedHandler{svc: svc, store: store, guard: guard, loc: loc, logger: logger}
}

// List returns the feed records matching the search and type filters.
func (h *FeedHandler) List(c *gin.Context) {
	filter := models.FeedFilter{
		Search: c.Query("search"),
		Type:   c.Query("type"),
		BarnID: c.Query("barn_id"),
	}
	records, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"feed":    view.FeedRows(records, h.loc),
		"canEdit": principal(c).Role.CanWrite(),
	})
}

// Stats returns the feed totals.
func (h *FeedHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Types returns the distinct feed types for the filter dropdown.
func (h *FeedHandler) Types(c *gin.Context) {
	types, err := h.svc.Types(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": types})
}

// BarnsForProfile fills the barn dropdown once a profile is picked.
func (h *FeedHandler) BarnsForProfile(c *gin.Context) {
	list, err := h.svc.BarnsForProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"barns": list})
}

// View hands the record over to the details page.
func (h *FeedHandler) View(c *gin.Context) {
	ctx := c.Request.Context()
	record, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, feedNotFound, err)
		return
	}
	if err := session.PutJSON(ctx, h.store, sessionID(c), session.KeyCurrentFeed, record); err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "feed-details"})
}

// Details shows the record handed over by View.
func (h *FeedHandler) Details(c *gin.Context) {
	var record models.FeedRecord
	ok, err := session.GetJSON(c.Request.Context(), h.store, sessionID(c), session.KeyCurrentFeed, &record)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{
			Error:    "no feed record selected",
			Banner:   view.NewBanner(view.ColorWarning, "No feed data found"),
			Redirect: RedirectFeed,
		})
		return
	}
	rows := view.FeedRows([]models.FeedRecord{record}, h.loc)
	c.JSON(http.StatusOK, gin.H{"feed": rows[0], "canEdit": principal(c).Role.CanWrite()})
}

// Edit hands the record over to the form.
func (h *FeedHandler) Edit(c *gin.Context) {
	ctx := c.Request.Context()
	record, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, feedNotFound, err)
		return
	}
	if err := session.PutJSON(ctx, h.store, sessionID(c), session.KeyEditFeed, record); err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "feed-form"})
}

type feedForm struct {
	Title    string             `json:"title"`
	Feed     *models.FeedRecord `json:"feed,omitempty"`
	Profiles []models.Profile   `json:"profiles"`
	Barns    []models.Barn      `json:"barns"`
}

// Form returns what the feed form needs. When editing, the barn dropdown is
// pre-filled for the record's profile.
func (h *FeedHandler) Form(c *gin.Context) {
	ctx := c.Request.Context()

	var record models.FeedRecord
	editing, err := session.TakeJSON(ctx, h.store, sessionID(c), session.KeyEditFeed, &record)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}
	profiles, err := h.svc.Profiles(ctx)
	if err != nil {
		respondError(c, h.logger, "", err)
		return
	}

	form := feedForm{Title: "Add Feed Record", Profiles: profiles, Barns: []models.Barn{}}
	if editing {
		form.Title = "Edit Feed Record"
		form.Feed = &record
		if form.Barns, err = h.svc.BarnsForProfile(ctx, record.ProfileID); err != nil {
			respondError(c, h.logger, "", err)
			return
		}
	}
	c.JSON(http.StatusOK, form)
}

type feedSubmission struct {
	ID string `json:"id"`
	models.FeedInput
	Date       string `json:"date"`
	LastRefill string `json:"last_refill"`
}

// input resolves the form's date fields, which arrive either as a plain
// day or as a full timestamp.
func (s feedSubmission) input() (models.FeedInput, error) {
	in := s.FeedInput
	var err error
	if in.Date, err = parseFormTime(s.Date); err != nil {
		return in, err
	}
	if in.LastRefill, err = parseFormTime(s.LastRefill); err != nil {
		return in, err
	}
	return in, nil
}

func parseFormTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", value)
}

// Submit creates or updates a feed record.
func (h *FeedHandler) Submit(c *gin.Context) {
	var req feedSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid feed data")
		return
	}
	if id := c.Param("id"); id != "" {
		req.ID = id
	}
	input, err := req.input()
	if err != nil {
		badRequest(c, "Invalid date")
		return
	}

	sid := sessionID(c)
	release, ok := h.guard.Acquire(sid + ":feed-form")
	if !ok {
		respondError(c, h.logger, "", ErrDuplicateSubmit)
		return
	}
	defer release()

	ctx := c.Request.Context()
	record, created, err := h.svc.Save(ctx, req.ID, input)
	if err != nil {
		respondError(c, h.logger, feedNotFound, err)
		return
	}
	if err := h.store.Delete(ctx, sid, session.KeyEditFeed); err != nil {
		h.logger.Warn("failed to clear feed form hand-off", zap.Error(err))
	}

	if created {
		respondSaved(c, http.StatusCreated, "Feed record created successfully", RedirectFeed, record)
		return
	}
	respondSaved(c, http.StatusOK, "Feed record updated successfully", RedirectFeed, record)
}

// ConfirmDelete returns the confirmation prompt for a delete.
func (h *FeedHandler) ConfirmDelete(c *gin.Context) {
	record, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, feedNotFound, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": record.ID, "message": feed.DeleteConfirmation(record)})
}

// Delete removes a feed record.
func (h *FeedHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, feedNotFound, err)
		return
	}
	c.JSON(http.StatusOK, actionResponse{Banner: view.NewBanner(view.ColorSuccess, "Feed record deleted successfully")})
}
