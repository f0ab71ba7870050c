package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"lireddit/internal/identity"
	"lireddit/internal/pkg/jwtutil"
)

// SessionStore resolves and persists server-side sessions.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (uint, bool, error)
	identity.Store
}

type SessionOptions struct {
	CookieName string
	Secret     string
	MaxAge     int // seconds
	Secure     bool
}

// Session resolves the session cookie into an identity.Session and attaches
// it to the request context. A missing, forged or expired cookie leaves the
// visitor anonymous; it never fails the request.
func Session(store SessionStore, opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cookie := &ginCookie{c: c, opts: opts}

		var (
			sessionID string
			userID    uint
		)
		if raw, err := c.Cookie(opts.CookieName); err == nil && raw != "" {
			if id, err := jwtutil.ParseSessionID(opts.Secret, raw); err == nil {
				uid, ok, err := store.Get(ctx, id)
				if err != nil {
					log.Printf("session lookup failed: %v", err)
				}
				if ok {
					sessionID, userID = id, uid
				}
			}
		}

		session := identity.NewSession(sessionID, userID, store, cookie)
		c.Request = c.Request.WithContext(identity.NewContext(ctx, session))
		c.Next()
	}
}

type ginCookie struct {
	c    *gin.Context
	opts SessionOptions
}

func (g *ginCookie) SetSession(sessionID string) error {
	signed, err := jwtutil.SignSessionID(g.opts.Secret, sessionID)
	if err != nil {
		return err
	}
	g.c.SetSameSite(http.SameSiteLaxMode)
	g.c.SetCookie(g.opts.CookieName, signed, g.opts.MaxAge, "/", "", g.opts.Secure, true)
	return nil
}

func (g *ginCookie) ClearSession() {
	g.c.SetSameSite(http.SameSiteLaxMode)
	g.c.SetCookie(g.opts.CookieName, "", -1, "/", "", g.opts.Secure, true)
}
