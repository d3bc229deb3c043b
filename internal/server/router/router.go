package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/server/handlers"
	"github.com/mamadbah2/telurku/internal/service/auth"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Barns     *handlers.BarnHandler
	Feed      *handlers.FeedHandler
	Dashboard *handlers.DashboardHandler
	Profiles  *handlers.ProfileHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, authSvc *auth.Service, cookie handlers.CookieOptions, logger *zap.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", handlers.SessionCookie(cookie))

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/logout", h.Auth.Logout)

	member := api.Group("", handlers.Require(authSvc.RequireAuth))
	admin := api.Group("", handlers.Require(authSvc.RequireAdmin))
	feedAccess := api.Group("", handlers.Require(authSvc.RequireMember))

	member.GET("/auth/me", h.Auth.Me)

	member.GET("/barns", h.Barns.List)
	member.GET("/barns/stats", h.Barns.Stats)
	member.GET("/barns/details", h.Barns.Details)
	member.GET("/barns/:id", h.Barns.Get)
	member.GET("/barns/:id/audit", h.Barns.Audit)
	member.POST("/barns/:id/view", h.Barns.View)
	admin.POST("/barns/:id/edit", h.Barns.Edit)
	admin.GET("/barns/form", h.Barns.Form)
	admin.POST("/barns", h.Barns.Submit)
	admin.PUT("/barns/:id", h.Barns.Submit)
	admin.GET("/barns/:id/delete", h.Barns.ConfirmDelete)
	admin.DELETE("/barns/:id", h.Barns.Delete)

	feedAccess.GET("/feed", h.Feed.List)
	feedAccess.GET("/feed/stats", h.Feed.Stats)
	feedAccess.GET("/feed/types", h.Feed.Types)
	feedAccess.GET("/feed/details", h.Feed.Details)
	feedAccess.POST("/feed/:id/view", h.Feed.View)
	admin.POST("/feed/:id/edit", h.Feed.Edit)
	admin.GET("/feed/form", h.Feed.Form)
	admin.POST("/feed", h.Feed.Submit)
	admin.PUT("/feed/:id", h.Feed.Submit)
	admin.GET("/feed/:id/delete", h.Feed.ConfirmDelete)
	admin.DELETE("/feed/:id", h.Feed.Delete)

	member.GET("/profiles", h.Profiles.List)
	member.GET("/profiles/:id/barns", h.Feed.BarnsForProfile)
	admin.GET("/profiles/roles", h.Profiles.ListWithRoles)

	member.GET("/dashboard", h.Dashboard.Dashboard)
	member.GET("/dashboard/recent", h.Dashboard.Recent)
	member.GET("/dashboard/chart", h.Dashboard.Chart)
	member.GET("/dashboard/alerts", h.Dashboard.Alerts)
	member.GET("/dashboard/stream", h.Dashboard.Stream)
	member.GET("/dashboard/export.csv", h.Dashboard.ExportCSV)
	member.POST("/dashboard/barns/:id/view", h.Dashboard.ViewBarn)
	admin.GET("/dashboard/barns/:id/quick-edit", h.Dashboard.QuickEditForm)
	admin.POST("/dashboard/barns/:id/quick-edit", h.Dashboard.QuickEdit)
	admin.POST("/dashboard/export/sheets", h.Dashboard.ExportSheet)
	admin.GET("/dashboard/snapshots", h.Dashboard.Snapshots)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
