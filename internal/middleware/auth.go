package middleware

import (
	"errors"
	"net/http"

	"twitter-oauth/internal/credstore"
	"twitter-oauth/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	credentialStoreKey = "credential_store"
	accessTokenKey     = "access_token"
)

// CredentialStore відкриває Credential Store сесії для кожного запиту
func CredentialStore(provider credstore.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		store, err := provider.Open(c.Writer, c.Request)
		if err != nil {
			logrus.WithError(err).Error("Failed to open credential store")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to open session",
			})
			return
		}

		c.Set(credentialStoreKey, store)
		c.Next()
	}
}

// RequireAccessToken пропускає запит лише якщо в сесії є access token
func RequireAccessToken(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		store, ok := GetCredentialStore(c)
		if !ok {
			logrus.Error("Credential store is not attached to request")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get session context",
			})
			return
		}

		token, err := authService.AccessToken(c.Request.Context(), store)
		if err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				logrus.WithField("path", c.Request.URL.Path).Warn("Missing Twitter access token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Not authenticated. Please log in.",
				})
				return
			}

			logrus.WithError(err).Error("Failed to read access token")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to read session",
			})
			return
		}

		c.Set(accessTokenKey, token)
		c.Next()
	}
}

// GetCredentialStore витягує Credential Store з контексту
func GetCredentialStore(c *gin.Context) (credstore.Store, bool) {
	value, exists := c.Get(credentialStoreKey)
	if !exists {
		return nil, false
	}

	store, ok := value.(credstore.Store)
	return store, ok
}

// GetAccessToken витягує access token з контексту
func GetAccessToken(c *gin.Context) (string, bool) {
	value, exists := c.Get(accessTokenKey)
	if !exists {
		return "", false
	}

	token, ok := value.(string)
	return token, ok
}
