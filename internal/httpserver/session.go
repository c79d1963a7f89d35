package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) getSession(c *gin.Context) {
	ws := mustWorkspace(c)
	if c.Query("verify") == "true" {
		_, err := ws.Session.Verify(c.Request.Context())
		h.deps.Metrics.SessionEvent("verify", err)
		if err != nil {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, toSessionResponse(ws.Session.Snapshot(), ws.Session.Busy()))
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ws := mustWorkspace(c)
	sess, err := ws.Session.Login(c.Request.Context(), req.Username, req.Password)
	h.deps.Metrics.SessionEvent("login", err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess, false))
}

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ws := mustWorkspace(c)
	sess, err := ws.Session.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.PasswordConfirm)
	h.deps.Metrics.SessionEvent("register", err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(sess, false))
}

func (h *handlers) refresh(c *gin.Context) {
	ws := mustWorkspace(c)
	sess, err := ws.Session.Refresh(c.Request.Context())
	h.deps.Metrics.SessionEvent("refresh", err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess, false))
}

func (h *handlers) logout(c *gin.Context) {
	ws := mustWorkspace(c)
	ws.Session.Logout(c.Request.Context())
	h.deps.Metrics.SessionEvent("logout", nil)
	c.Status(http.StatusNoContent)
}
