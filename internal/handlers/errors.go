package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"twitter-oauth/internal/middleware"
	"twitter-oauth/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError переводить помилку сервісу у JSON відповідь.
// Сире тіло відповіді Twitter клієнту не передається.
func respondError(c *gin.Context, err error, message string) {
	log := middleware.Logger(c).WithError(err)

	var providerErr *services.ProviderError
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		log.Warn(message)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	case errors.Is(err, services.ErrUnauthenticated):
		log.Warn(message)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Not authenticated. Please log in.",
		})
	case errors.Is(err, services.ErrNotFound):
		log.Warn(message)
		c.JSON(http.StatusNotFound, gin.H{
			"error":   message,
			"details": "not found",
		})
	case errors.As(err, &providerErr):
		log.Error(message)
		if providerErr.StatusCode == http.StatusUnauthorized {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Twitter rejected the access token. Please log in again.",
				"details": fmt.Sprintf("twitter returned status %d", providerErr.StatusCode),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   message,
			"details": fmt.Sprintf("twitter returned status %d", providerErr.StatusCode),
		})
	case errors.Is(err, services.ErrConfigMissing):
		log.Error(message)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Twitter OAuth is not configured",
			"details": services.ReasonConfigMissing,
		})
	default:
		log.Error(message)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   message,
			"details": "internal error",
		})
	}
}

// accessToken повертає access token, встановлений RequireAccessToken
func accessToken(c *gin.Context) (string, bool) {
	token, ok := middleware.GetAccessToken(c)
	if !ok || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Not authenticated. Please log in.",
		})
		return "", false
	}
	return token, true
}
