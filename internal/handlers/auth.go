package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"twitter-oauth/internal/middleware"
	"twitter-oauth/internal/models"
	"twitter-oauth/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler містить handlers для Twitter OAuth 2.0 flow
type AuthHandler struct {
	authService services.AuthService
	landingURL  string
	homeURL     string
}

// NewAuthHandler створює новий AuthHandler
func NewAuthHandler(authService services.AuthService, landingURL, homeURL string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		landingURL:  landingURL,
		homeURL:     homeURL,
	}
}

// Login ініціює Authorization Code Flow з PKCE
// @Summary Twitter Login
// @Description Зберігає PKCE verifier та state і перенаправляє на сторінку авторизації Twitter
// @Tags auth
// @Success 302
// @Failure 500 {object} map[string]interface{}
// @Router /auth/twitter [get]
func (h *AuthHandler) Login(c *gin.Context) {
	log := middleware.Logger(c)
	log.Info("🔐 Twitter login request")

	store, ok := middleware.GetCredentialStore(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get session context"})
		return
	}

	authURL, err := h.authService.BeginLogin(c.Request.Context(), store)
	if err != nil {
		respondError(c, err, "Failed to initiate Twitter login")
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// Callback обробляє redirect від Twitter (Authorization Code Flow)
// @Summary Twitter OAuth Callback
// @Description Перевіряє state, обмінює code на токени і перенаправляє на landing сторінку
// @Tags auth
// @Param code query string false "Authorization Code"
// @Param state query string false "State"
// @Param error query string false "Provider error"
// @Success 303
// @Router /auth/twitter/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	log := middleware.Logger(c)
	log.Info("🔄 Twitter OAuth callback")

	var params models.CallbackParams
	if err := c.ShouldBindQuery(&params); err != nil {
		log.WithError(err).Warn("Invalid callback parameters")
		h.redirectWithError(c, services.ReasonMissingCodeOrState)
		return
	}

	store, ok := middleware.GetCredentialStore(c)
	if !ok {
		h.redirectWithError(c, services.ReasonAuthFailed)
		return
	}

	profile, err := h.authService.HandleCallback(c.Request.Context(), store, params)
	if err != nil {
		var cbErr *services.CallbackError
		if errors.As(err, &cbErr) {
			h.redirectWithError(c, cbErr.RedirectTag())
			return
		}
		log.WithError(err).Error("Unexpected callback failure")
		h.redirectWithError(c, services.ReasonAuthFailed)
		return
	}

	log.WithField("user_id", profile.ID).Info("✅ Twitter login completed")
	c.Redirect(http.StatusSeeOther, h.landingURL)
}

// Logout видаляє токени та профіль з сесії
// @Summary Logout
// @Description Видаляє access token, refresh token та профіль. Ідемпотентний.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	log := middleware.Logger(c)
	log.Info("🚪 Logout request")

	store, ok := middleware.GetCredentialStore(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get session context"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), store); err != nil {
		log.WithError(err).Error("Failed to log out")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to log out",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Refresh оновлює access token використовуючи збережений refresh token
// @Summary Refresh Token
// @Description Оновлює набір токенів сесії
// @Tags auth
// @Produce json
// @Success 200 {object} models.RefreshResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	middleware.Logger(c).Info("🔄 Token refresh")

	store, ok := middleware.GetCredentialStore(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get session context"})
		return
	}

	tokens, err := h.authService.RefreshSession(c.Request.Context(), store)
	if err != nil {
		respondError(c, err, "Failed to refresh token")
		return
	}

	c.JSON(http.StatusOK, models.RefreshResponse{
		Success:   true,
		ExpiresIn: tokens.ExpiresIn,
		Scope:     tokens.Scope,
	})
}

// Me повертає кешований профіль користувача
// @Summary Current Profile
// @Description Повертає кешований профіль Twitter (лише для відображення)
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	store, ok := middleware.GetCredentialStore(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get session context"})
		return
	}

	profile, err := h.authService.CurrentProfile(c.Request.Context(), store)
	if err != nil {
		respondError(c, err, "Failed to read profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    profile,
	})
}

// redirectWithError перенаправляє на головну сторінку з ?error=<reason>
func (h *AuthHandler) redirectWithError(c *gin.Context, reason string) {
	target, err := url.Parse(h.homeURL)
	if err != nil {
		target = &url.URL{Path: "/"}
	}

	query := target.Query()
	query.Set("error", reason)
	target.RawQuery = query.Encode()

	c.Redirect(http.StatusSeeOther, target.String())
}
