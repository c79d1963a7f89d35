package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"storefront-client/internal/domain"
	"storefront-client/internal/service/session"
)

// writeError maps a domain error to a status code and a display message.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validation *domain.ValidationError
	var authErr *domain.AuthenticationError
	var notFound *domain.NotFoundError
	var collab *domain.CollaboratorError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "field": validation.Field})
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Error()})
	case errors.Is(err, domain.ErrNoSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "login": loginPath})
	case errors.Is(err, domain.ErrSessionBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "a sign-in is already in progress"})
	case errors.Is(err, session.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": "signed out while the request was in progress"})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &collab):
		if collab.Unauthorized() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, please sign in again", "login": loginPath})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream service unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
