package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/telurku/internal/service/auth"
	"github.com/mamadbah2/telurku/internal/session"
)

const (
	ctxSessionID = "telurku.sid"
	ctxPrincipal = "telurku.principal"
)

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge int
}

// SessionCookie makes sure every request carries a session id, issuing a new
// cookie when the browser has none.
func SessionCookie(opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(opts.Name)
		if err != nil || sid == "" {
			sid = session.NewID()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(opts.Name, sid, opts.MaxAge, "/", "", opts.Secure, true)
		}
		c.Set(ctxSessionID, sid)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

// Guard is an auth check run before a handler.
type Guard func(ctx context.Context, sid string) (auth.Principal, error)

// Require aborts the request unless guard admits the session. The admitted
// principal's token is attached to the request context for backend calls.
func Require(guard Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := guard(c.Request.Context(), sessionID(c))
		if err != nil {
			respondError(c, nil, "", err)
			c.Abort()
			return
		}
		c.Set(ctxPrincipal, p)
		c.Request = c.Request.WithContext(p.Context(c.Request.Context()))
		c.Next()
	}
}

func principal(c *gin.Context) auth.Principal {
	if v, ok := c.Get(ctxPrincipal); ok {
		if p, ok := v.(auth.Principal); ok {
			return p
		}
	}
	return auth.Principal{}
}
