package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository/memory"
	"github.com/mamadbah2/telurku/internal/server/handlers"
	"github.com/mamadbah2/telurku/internal/service/alerts"
	"github.com/mamadbah2/telurku/internal/service/auth"
	"github.com/mamadbah2/telurku/internal/service/barns"
	"github.com/mamadbah2/telurku/internal/service/feed"
	"github.com/mamadbah2/telurku/internal/service/live"
	"github.com/mamadbah2/telurku/internal/service/reporting"
	"github.com/mamadbah2/telurku/internal/session"
)

const cookieName = "telurku_test"

type fixture struct {
	engine *gin.Engine
	store  *memory.Store
	hub    *live.Hub
	owner  models.Profile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	owner := store.AddUser(models.Profile{Name: "Awa", Email: "admin@farm.gn", Role: models.RoleAdmin}, "secret")
	store.AddUser(models.Profile{Name: "Binta", Email: "viewer@farm.gn", Role: models.RoleViewer}, "secret")
	store.AddUser(models.Profile{Name: "Guest", Email: "guest@farm.gn", Role: "guest"}, "secret")

	barnRepo := memory.NewBarnRepository(store)
	feedRepo := memory.NewFeedRepository(store)
	profileRepo := memory.NewProfileRepository(store)
	sessions := session.NewMemoryStore(time.Hour)
	guard := session.NewGuard()

	authSvc := auth.NewService(memory.NewIdentityProvider(store, time.Hour), profileRepo, sessions, "", nil)
	barnSvc := barns.NewService(barnRepo, memory.NewAuditRepository(store), profileRepo, nil)
	feedSvc := feed.NewService(feedRepo, barnRepo, profileRepo, nil)
	reportSvc := reporting.NewService(barnSvc, feedSvc, nil)
	alertSvc := alerts.NewService(barnSvc, nil)
	hub := live.NewHub(4, nil)

	h := Handlers{
		Auth:      handlers.NewAuthHandler(authSvc, nil),
		Barns:     handlers.NewBarnHandler(barnSvc, sessions, guard, time.UTC, nil),
		Feed:      handlers.NewFeedHandler(feedSvc, sessions, guard, time.UTC, nil),
		Dashboard: handlers.NewDashboardHandler(reportSvc, barnSvc, alertSvc, hub, sessions, time.UTC, nil),
		Profiles:  handlers.NewProfileHandler(profileRepo, nil),
	}
	engine := New(h, authSvc, handlers.CookieOptions{Name: cookieName, MaxAge: 3600}, nil)
	return &fixture{engine: engine, store: store, hub: hub, owner: owner}
}

func (f *fixture) do(t *testing.T, sid, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sid})
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T, sid, email string) {
	t.Helper()
	rec := f.do(t, sid, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s status = %d, body = %s", email, rec.Code, rec.Body)
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
	return v
}

type bannerBody struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
	Banner   struct {
		Type           string `json:"type"`
		Message        string `json:"message"`
		DismissAfterMS int    `json:"dismiss_after_ms"`
	} `json:"banner"`
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, "", http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSessionCookieIssued(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "", http.MethodGet, "/api/barns", nil)
	if !strings.Contains(rec.Header().Get("Set-Cookie"), cookieName+"=") {
		t.Errorf("Set-Cookie = %q", rec.Header().Get("Set-Cookie"))
	}
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "anon", http.MethodGet, "/api/barns", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body := decode[bannerBody](t, rec); body.Redirect != "login" {
		t.Errorf("redirect = %q, want login", body.Redirect)
	}
}

func TestLoginRejectsInvalidRole(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "s1", http.MethodPost, "/api/auth/login", map[string]string{"email": "guest@farm.gn", "password": "secret"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if rec := f.do(t, "s1", http.MethodGet, "/api/auth/me", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("me after rejected login status = %d, want 401", rec.Code)
	}
}

func TestLoginBadPassword(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "s1", http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@farm.gn", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMeAndLogout(t *testing.T) {
	f := newFixture(t)
	f.login(t, "s1", "admin@farm.gn")

	rec := f.do(t, "s1", http.MethodGet, "/api/auth/me", nil)
	info := decode[struct {
		RoleLabel string `json:"roleLabel"`
		IsAdmin   bool   `json:"isAdmin"`
	}](t, rec)
	if info.RoleLabel != "Role: Admin" || !info.IsAdmin {
		t.Errorf("me = %+v", info)
	}

	if rec := f.do(t, "s1", http.MethodPost, "/api/auth/logout", nil); rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if rec := f.do(t, "s1", http.MethodGet, "/api/auth/me", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", rec.Code)
	}
}

func TestBarnLifecycle(t *testing.T) {
	f := newFixture(t)
	f.login(t, "admin", "admin@farm.gn")

	rec := f.do(t, "admin", http.MethodPost, "/api/barns", map[string]any{
		"name": "North", "chickens": 120, "eggs_today": 40, "status": "warning", "profile_id": f.owner.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body)
	}
	saved := decode[struct {
		Redirect        string      `json:"redirect"`
		RedirectAfterMS int         `json:"redirect_after_ms"`
		Data            models.Barn `json:"data"`
	}](t, rec)
	if saved.Redirect != "barns" || saved.RedirectAfterMS != 1000 || saved.Data.ID == "" {
		t.Fatalf("create response = %+v", saved)
	}
	id := saved.Data.ID

	rec = f.do(t, "admin", http.MethodGet, "/api/barns?status=all&search=nor", nil)
	list := decode[struct {
		Barns []struct {
			Name        string `json:"name"`
			StatusColor string `json:"statusColor"`
		} `json:"barns"`
		CanEdit bool `json:"canEdit"`
	}](t, rec)
	if len(list.Barns) != 1 || list.Barns[0].StatusColor != "warning" || !list.CanEdit {
		t.Errorf("list = %+v", list)
	}

	if rec := f.do(t, "admin", http.MethodPost, "/api/barns/"+id+"/view", nil); rec.Code != http.StatusOK {
		t.Fatalf("view status = %d", rec.Code)
	}
	rec = f.do(t, "admin", http.MethodGet, "/api/barns/details", nil)
	details := decode[struct {
		Barn  models.Barn `json:"barn"`
		Audit []struct {
			Operation string `json:"operation"`
			Details   string `json:"details"`
		} `json:"audit"`
	}](t, rec)
	if details.Barn.ID != id || len(details.Audit) != 1 || details.Audit[0].Details != "Barn: North" {
		t.Errorf("details = %+v", details)
	}

	if rec := f.do(t, "admin", http.MethodPost, "/api/barns/"+id+"/edit", nil); rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d", rec.Code)
	}
	rec = f.do(t, "admin", http.MethodGet, "/api/barns/form", nil)
	form := decode[struct {
		Title string       `json:"title"`
		Barn  *models.Barn `json:"barn"`
	}](t, rec)
	if form.Title != "Edit Barn" || form.Barn == nil || form.Barn.ID != id {
		t.Errorf("form = %+v", form)
	}
	rec = f.do(t, "admin", http.MethodGet, "/api/barns/form", nil)
	if form := decode[struct{ Title string }](t, rec); form.Title != "Add Barn" {
		t.Errorf("second form title = %q, want hand-off consumed", form.Title)
	}

	rec = f.do(t, "admin", http.MethodDelete, "/api/barns/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = f.do(t, "admin", http.MethodDelete, "/api/barns/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
	if body := decode[bannerBody](t, rec); body.Banner.Type != "warning" || body.Banner.DismissAfterMS != 5000 {
		t.Errorf("not found banner = %+v", body.Banner)
	}
}

func TestBarnValidationAndViewerForbidden(t *testing.T) {
	f := newFixture(t)
	f.login(t, "admin", "admin@farm.gn")
	f.login(t, "viewer", "viewer@farm.gn")

	rec := f.do(t, "admin", http.MethodPost, "/api/barns", map[string]any{"name": "  ", "profile_id": f.owner.ID})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name status = %d, want 400", rec.Code)
	}
	if body := decode[bannerBody](t, rec); body.Banner.Message != "Barn name is required" {
		t.Errorf("message = %q", body.Banner.Message)
	}

	rec = f.do(t, "viewer", http.MethodPost, "/api/barns", map[string]any{"name": "X", "profile_id": f.owner.ID})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer create status = %d, want 403", rec.Code)
	}
	if body := decode[bannerBody](t, rec); body.Banner.Message != "Access denied. Admin privileges required." {
		t.Errorf("message = %q", body.Banner.Message)
	}

	if rec := f.do(t, "viewer", http.MethodGet, "/api/barns", nil); rec.Code != http.StatusOK {
		t.Errorf("viewer list status = %d", rec.Code)
	}
}

func TestDashboardPagingAndExport(t *testing.T) {
	f := newFixture(t)
	f.store.SetClock(func() func() time.Time {
		ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
		return func() time.Time { ts = ts.Add(time.Minute); return ts }
	}())
	for i := 0; i < 12; i++ {
		status := models.StatusOK
		if i == 0 {
			status = models.StatusAlert
		}
		f.store.PutBarn(models.Barn{Name: "Barn " + string(rune('A'+i)), Chickens: models.Int(10), Status: status, ProfileID: f.owner.ID})
	}
	f.login(t, "admin", "admin@farm.gn")

	rec := f.do(t, "admin", http.MethodGet, "/api/dashboard?page=2&range=week", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, body = %s", rec.Code, rec.Body)
	}
	d := decode[struct {
		AlertIndicator int `json:"alertIndicator"`
		Recent         struct {
			Barns      []any `json:"barns"`
			TotalPages int   `json:"totalPages"`
			Pagination struct {
				Pages []struct {
					Number int  `json:"number"`
					Active bool `json:"active"`
				} `json:"pages"`
			} `json:"pagination"`
		} `json:"recent"`
		Chart struct {
			Label string `json:"label"`
		} `json:"chart"`
	}](t, rec)
	if d.AlertIndicator != 1 || len(d.Recent.Barns) != 5 || d.Recent.TotalPages != 3 {
		t.Errorf("dashboard = %+v", d)
	}
	if len(d.Recent.Pagination.Pages) != 3 || !d.Recent.Pagination.Pages[1].Active {
		t.Errorf("pagination = %+v", d.Recent.Pagination)
	}

	rec = f.do(t, "admin", http.MethodGet, "/api/dashboard/export.csv?range=week", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "dashboard_export_week_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "Dashboard Export\n") {
		t.Errorf("csv = %q", rec.Body.String())
	}

	rec = f.do(t, "admin", http.MethodPost, "/api/dashboard/export/sheets", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("sheet export without sink status = %d, want 503", rec.Code)
	}

	rec = f.do(t, "admin", http.MethodGet, "/api/dashboard/alerts", nil)
	alert := decode[struct {
		Alert *alerts.Notification `json:"alert"`
	}](t, rec)
	if alert.Alert == nil || alert.Alert.Message != "Barn A: 🔴 Alert" {
		t.Errorf("alert = %+v", alert.Alert)
	}
}

func TestQuickEdit(t *testing.T) {
	f := newFixture(t)
	barn := f.store.PutBarn(models.Barn{Name: "North", Status: models.StatusOK, ProfileID: f.owner.ID})
	f.login(t, "admin", "admin@farm.gn")

	path := "/api/dashboard/barns/" + barn.ID + "/quick-edit"
	rec := f.do(t, "admin", http.MethodPost, path, map[string]any{"chickens": -1, "eggs_today": 2, "status": "ok"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative quick edit status = %d, want 400", rec.Code)
	}

	rec = f.do(t, "admin", http.MethodPost, path, map[string]any{"chickens": 80, "eggs_today": 30, "status": "alert"})
	if rec.Code != http.StatusOK {
		t.Fatalf("quick edit status = %d, body = %s", rec.Code, rec.Body)
	}
	rec = f.do(t, "admin", http.MethodGet, path, nil)
	form := decode[struct {
		Form barns.QuickEdit `json:"form"`
	}](t, rec)
	if form.Form.Chickens != 80 || form.Form.Status != models.StatusAlert {
		t.Errorf("quick edit form = %+v", form.Form)
	}
}

func TestFeedFlow(t *testing.T) {
	f := newFixture(t)
	barn := f.store.PutBarn(models.Barn{Name: "North", ProfileID: f.owner.ID})
	f.login(t, "admin", "admin@farm.gn")
	f.login(t, "viewer", "viewer@farm.gn")

	input := map[string]any{
		"profile_id": f.owner.ID, "barn_id": barn.ID, "type": "Layer mash", "amount": 25, "date": "2025-03-01",
		"estimated_days_remaining": 3,
	}
	rec := f.do(t, "viewer", http.MethodPost, "/api/feed", input)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer feed create status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = f.do(t, "admin", http.MethodPost, "/api/feed", input)
	if rec.Code != http.StatusCreated {
		t.Fatalf("feed create status = %d, body = %s", rec.Code, rec.Body)
	}
	created := decode[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, rec)
	if created.Data.ID == "" {
		t.Fatalf("feed create returned no id: %s", rec.Body)
	}

	for _, tc := range []struct{ method, path string }{
		{http.MethodDelete, "/api/feed/" + created.Data.ID},
		{http.MethodPut, "/api/feed/" + created.Data.ID},
		{http.MethodGet, "/api/feed/form"},
	} {
		if rec := f.do(t, "viewer", tc.method, tc.path, input); rec.Code != http.StatusForbidden {
			t.Errorf("viewer %s %s status = %d, want %d", tc.method, tc.path, rec.Code, http.StatusForbidden)
		}
	}

	rec = f.do(t, "viewer", http.MethodGet, "/api/feed?search=north", nil)
	list := decode[struct {
		Feed []struct {
			BarnName string `json:"barnName"`
			LowStock bool   `json:"lowStock"`
			DateText string `json:"dateText"`
		} `json:"feed"`
		CanEdit bool `json:"canEdit"`
	}](t, rec)
	if len(list.Feed) != 1 || !list.Feed[0].LowStock || list.Feed[0].DateText != "2025-03-01" {
		t.Errorf("feed list = %+v", list)
	}
	if list.CanEdit {
		t.Error("feed list offers editing to a viewer")
	}

	rec = f.do(t, "admin", http.MethodPost, "/api/feed", map[string]any{"profile_id": f.owner.ID, "type": "mash"})
	if body := decode[bannerBody](t, rec); rec.Code != http.StatusBadRequest || body.Banner.Message != "Please select a barn" {
		t.Errorf("missing barn: status %d, banner %+v", rec.Code, body.Banner)
	}

	rec = f.do(t, "viewer", http.MethodGet, "/api/profiles/"+f.owner.ID+"/barns", nil)
	dropdown := decode[struct {
		Barns []models.Barn `json:"barns"`
	}](t, rec)
	if len(dropdown.Barns) != 1 || dropdown.Barns[0].ID != barn.ID {
		t.Errorf("barns for profile = %+v", dropdown.Barns)
	}
}

func TestShutdownEndsOpenStreams(t *testing.T) {
	f := newFixture(t)
	f.login(t, "admin", "admin@farm.gn")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: f.engine}
	srv.RegisterOnShutdown(f.hub.Close)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	req, err := http.NewRequest(http.MethodGet, "http://"+ln.Addr().String()+"/api/dashboard/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "admin"})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil || !strings.HasPrefix(line, "event:ready") {
		t.Fatalf("first stream line = %q, err = %v", line, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v, want nil", err)
	}
	if err := <-served; !errors.Is(err, http.ErrServerClosed) {
		t.Errorf("Serve() error = %v, want ErrServerClosed", err)
	}
}
