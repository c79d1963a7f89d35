package httpserver

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"storefront-client/internal/metrics"
	"storefront-client/internal/workspace"
)

const (
	workspaceCookie = "storefront_ws"
	workspaceKey    = "workspace"
	loginPath       = "/login"
	cookieMaxAge    = 30 * 24 * 60 * 60
)

func requestLogger(logger zerolog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		route := c.FullPath()
		m.ObserveRequest(c.Request.Method, route, status, elapsed.Seconds())

		evt := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			evt = logger.Error()
		case status >= http.StatusBadRequest:
			evt = logger.Warn()
		}
		if ws, ok := currentWorkspace(c); ok {
			evt = evt.Str("workspace_id", ws.ID)
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// workspaceMiddleware binds the request to the caller's workspace, issuing a
// cookie when the caller is new. State is persisted after mutating requests
// and whenever the request changed whether a session is active.
func workspaceMiddleware(registry WorkspaceRegistry, secure bool, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(workspaceCookie)
		ws, err := registry.Open(c.Request.Context(), id)
		if err != nil {
			logger.Error().Err(err).Msg("open workspace failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "workspace unavailable"})
			return
		}
		if ws.ID != id {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(workspaceCookie, ws.ID, cookieMaxAge, "/", "", secure, true)
		}
		c.Set(workspaceKey, ws)

		wasActive := ws.Session.HasActiveSession()
		c.Next()

		if !mutating(c.Request.Method) && ws.Session.HasActiveSession() == wasActive {
			return
		}
		// The workspace changed even if the caller went away; save it anyway.
		if err := registry.Persist(context.WithoutCancel(c.Request.Context()), ws); err != nil {
			_ = c.Error(err)
		}
	}
}

// viewGate admits only requests whose workspace holds an active session.
// Browser navigations are redirected to the login entry point; API callers
// get a 401.
func (h *handlers) viewGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := mustWorkspace(c)
		if h.refreshWithin > 0 && ws.Session.NeedsRefresh(h.refreshWithin) {
			_, err := ws.Session.Refresh(c.Request.Context())
			h.deps.Metrics.SessionEvent("refresh", err)
			if err != nil {
				h.logger.Warn().Err(err).Str("workspace_id", ws.ID).Msg("proactive refresh failed")
			}
		}
		if ws.Session.HasActiveSession() {
			c.Next()
			return
		}
		if wantsHTML(c.Request) {
			target := loginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusSeeOther, target)
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "login": loginPath})
	}
}

func currentWorkspace(c *gin.Context) (*workspace.Workspace, bool) {
	v, ok := c.Get(workspaceKey)
	if !ok {
		return nil, false
	}
	ws, ok := v.(*workspace.Workspace)
	return ws, ok
}

func mustWorkspace(c *gin.Context) *workspace.Workspace {
	return c.MustGet(workspaceKey).(*workspace.Workspace)
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
