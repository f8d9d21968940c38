package handlers

import (
	"net/http"
	"strings"

	"twitter-oauth/internal/middleware"
	"twitter-oauth/internal/models"
	"twitter-oauth/internal/services"

	"github.com/gin-gonic/gin"
)

// APIHandler містить handlers для дій від імені користувача Twitter
type APIHandler struct {
	api services.APIClient
}

// NewAPIHandler створює новий APIHandler
func NewAPIHandler(api services.APIClient) *APIHandler {
	return &APIHandler{
		api: api,
	}
}

// CreateTweet публікує твіт або відповідь
// @Summary Create Tweet
// @Description Публікує твіт; replyToTweetId робить його відповіддю
// @Tags twitter
// @Accept json
// @Produce json
// @Param request body models.CreatePostRequest true "Tweet"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/twitter/tweet [post]
func (h *APIHandler) CreateTweet(c *gin.Context) {
	token, ok := accessToken(c)
	if !ok {
		return
	}

	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	// Валідація до будь-якого виклику Twitter
	if err := services.ValidatePostText(req.Text); err != nil {
		respondError(c, err, "Invalid tweet text")
		return
	}

	post, err := h.api.CreatePost(c.Request.Context(), token, req.Text, strings.TrimSpace(req.ReplyToTweetID))
	if err != nil {
		respondError(c, err, "Failed to create tweet")
		return
	}

	middleware.Logger(c).WithField("post_id", post.ID).Info("📝 Tweet created")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tweet":   post,
	})
}

// GetTweet повертає твіт за id
// @Summary Get Tweet
// @Description Повертає твіт з автором
// @Tags twitter
// @Produce json
// @Param id path string true "Tweet ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/twitter/tweet/{id} [get]
func (h *APIHandler) GetTweet(c *gin.Context) {
	token, ok := accessToken(c)
	if !ok {
		return
	}

	result, err := h.api.GetPost(c.Request.Context(), token, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get tweet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tweet":   result.Post,
		"users":   result.Authors,
	})
}

// GetReplies повертає відповіді на твіт
// @Summary Get Replies
// @Description Повертає до 10 останніх відповідей у розмові твіта
// @Tags twitter
// @Produce json
// @Param id path string true "Tweet ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/twitter/tweet/{id}/replies [get]
func (h *APIHandler) GetReplies(c *gin.Context) {
	token, ok := accessToken(c)
	if !ok {
		return
	}

	thread, err := h.api.GetPostReplies(c.Request.Context(), token, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get replies")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"replies":      thread.Posts,
		"users":        thread.Authors,
		"result_count": thread.ResultCount,
	})
}

// SendDirectMessage надсилає приватне повідомлення
// @Summary Send Direct Message
// @Description Надсилає повідомлення за recipientId або recipientUsername
// @Tags twitter
// @Accept json
// @Produce json
// @Param request body models.SendMessageRequest true "Message"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/twitter/dm [post]
func (h *APIHandler) SendDirectMessage(c *gin.Context) {
	token, ok := accessToken(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message text is required"})
		return
	}

	recipientID := strings.TrimSpace(req.RecipientID)
	username := strings.TrimSpace(req.RecipientUsername)
	if recipientID == "" && username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipientId or recipientUsername is required"})
		return
	}

	if recipientID == "" {
		user, err := h.api.GetUserByUsername(c.Request.Context(), token, username)
		if err != nil {
			respondError(c, err, "Failed to resolve recipient")
			return
		}
		recipientID = user.ID
	}

	event, err := h.api.CreateDirectMessage(c.Request.Context(), token, recipientID, req.Text)
	if err != nil {
		respondError(c, err, "Failed to send direct message")
		return
	}

	middleware.Logger(c).WithField("event_id", event.EventID).Info("✉️ Direct message sent")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": event,
	})
}

// GetUser шукає користувача за username
// @Summary Lookup User
// @Description Повертає профіль користувача Twitter за username
// @Tags twitter
// @Produce json
// @Param username query string true "Username"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/twitter/user [get]
func (h *APIHandler) GetUser(c *gin.Context) {
	token, ok := accessToken(c)
	if !ok {
		return
	}

	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The username parameter is required"})
		return
	}

	user, err := h.api.GetUserByUsername(c.Request.Context(), token, username)
	if err != nil {
		respondError(c, err, "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}
