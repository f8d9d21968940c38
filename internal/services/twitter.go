package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf16"

	"twitter-oauth/internal/build"
	"twitter-oauth/internal/models"

	"github.com/google/go-querystring/query"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// MaxPostLength ліміт довжини твіта в UTF-16 одиницях
const MaxPostLength = 280

const maxResponseBytes = 1 << 20

// Набори полів, які запитуються у Twitter API
const (
	userFields        = "profile_image_url,username,name"
	postFields        = "created_at,author_id,public_metrics,conversation_id"
	replyFields       = "created_at,author_id,public_metrics,in_reply_to_user_id"
	authorExpansion   = "author_id"
	authorUserFields  = "username,name"
	repliesMaxResults = 10
)

type userQuery struct {
	UserFields string `url:"user.fields"`
}

type postQuery struct {
	TweetFields string `url:"tweet.fields"`
	Expansions  string `url:"expansions,omitempty"`
	UserFields  string `url:"user.fields,omitempty"`
}

type searchQuery struct {
	Query       string `url:"query"`
	TweetFields string `url:"tweet.fields"`
	Expansions  string `url:"expansions,omitempty"`
	UserFields  string `url:"user.fields,omitempty"`
	MaxResults  int    `url:"max_results"`
}

// apiEnvelope загальна обгортка відповідей Twitter API v2
type apiEnvelope struct {
	Data     json.RawMessage `json:"data"`
	Includes struct {
		Users []models.UserProfile `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

func (e *apiEnvelope) hasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

type createPostBody struct {
	Text  string           `json:"text"`
	Reply *createPostReply `json:"reply,omitempty"`
}

type createPostReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type createMessageBody struct {
	Text string `json:"text"`
}

// twitterAPIClient реалізація APIClient
type twitterAPIClient struct {
	baseURL string
	timeout time.Duration
}

// NewAPIClient створює клієнт Twitter API v2
func NewAPIClient(baseURL string, timeout time.Duration) APIClient {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &twitterAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// ValidatePostText перевіряє текст твіта до будь-якого мережевого виклику
func ValidatePostText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if n := utf16Length(text); n > MaxPostLength {
		return fmt.Errorf("%w: text is %d characters, limit is %d", ErrInvalidInput, n, MaxPostLength)
	}
	return nil
}

func utf16Length(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}

// GetCurrentUser отримує профіль власника токена
func (a *twitterAPIClient) GetCurrentUser(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	var env apiEnvelope
	if err := a.do(ctx, accessToken, "get_current_user", http.MethodGet, "/users/me", userQuery{UserFields: userFields}, nil, &env); err != nil {
		return nil, err
	}

	return decodeUser(&env)
}

// GetUserByUsername шукає користувача за username
func (a *twitterAPIClient) GetUserByUsername(ctx context.Context, accessToken, username string) (*models.UserProfile, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	var env apiEnvelope
	err := a.do(ctx, accessToken, "get_user_by_username", http.MethodGet,
		"/users/by/username/"+url.PathEscape(username), userQuery{UserFields: userFields}, nil, &env)
	if err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) && providerErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
		}
		return nil, err
	}

	// Twitter повертає 200 з масивом errors для неіснуючих користувачів
	if !env.hasData() && len(env.Errors) > 0 {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
	}

	return decodeUser(&env)
}

// CreatePost публікує твіт або відповідь на твіт replyToID
func (a *twitterAPIClient) CreatePost(ctx context.Context, accessToken, text, replyToID string) (*models.Post, error) {
	if err := ValidatePostText(text); err != nil {
		return nil, err
	}

	body := createPostBody{Text: text}
	if replyToID != "" {
		body.Reply = &createPostReply{InReplyToTweetID: replyToID}
	}

	var env apiEnvelope
	if err := a.do(ctx, accessToken, "create_post", http.MethodPost, "/tweets", nil, body, &env); err != nil {
		return nil, err
	}

	var post models.Post
	if err := decodeData(&env, &post); err != nil {
		return nil, err
	}
	if post.ID == "" {
		return nil, fmt.Errorf("%w: post id is missing", ErrMalformedResponse)
	}

	logrus.WithFields(logrus.Fields{
		"post_id":  post.ID,
		"reply_to": replyToID,
	}).Info("Post created")

	return &post, nil
}

// CreateDirectMessage надсилає приватне повідомлення користувачу recipientID
func (a *twitterAPIClient) CreateDirectMessage(ctx context.Context, accessToken, recipientID, text string) (*models.MessageEvent, error) {
	if strings.TrimSpace(recipientID) == "" {
		return nil, fmt.Errorf("%w: recipient id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	var env apiEnvelope
	path := "/dm_conversations/with/" + url.PathEscape(recipientID) + "/messages"
	if err := a.do(ctx, accessToken, "create_direct_message", http.MethodPost, path, nil, createMessageBody{Text: text}, &env); err != nil {
		return nil, err
	}

	var event models.MessageEvent
	if err := decodeData(&env, &event); err != nil {
		return nil, err
	}
	if event.EventID == "" {
		return nil, fmt.Errorf("%w: dm_event_id is missing", ErrMalformedResponse)
	}
	event.RecipientID = recipientID
	event.Text = text

	logrus.WithFields(logrus.Fields{
		"event_id":     event.EventID,
		"recipient_id": recipientID,
	}).Info("Direct message sent")

	return &event, nil
}

// GetPost отримує твіт з розгорнутим автором
func (a *twitterAPIClient) GetPost(ctx context.Context, accessToken, postID string) (*models.PostWithAuthors, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, fmt.Errorf("%w: post id is required", ErrInvalidInput)
	}

	q := postQuery{
		TweetFields: postFields,
		Expansions:  authorExpansion,
		UserFields:  authorUserFields,
	}

	var env apiEnvelope
	if err := a.do(ctx, accessToken, "get_post", http.MethodGet, "/tweets/"+url.PathEscape(postID), q, nil, &env); err != nil {
		return nil, err
	}
	if !env.hasData() && len(env.Errors) > 0 {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
	}

	result := &models.PostWithAuthors{Authors: env.Includes.Users}
	if err := decodeData(&env, &result.Post); err != nil {
		return nil, err
	}

	return result, nil
}

// GetPostReplies повертає останні відповіді в розмові твіта
func (a *twitterAPIClient) GetPostReplies(ctx context.Context, accessToken, postID string) (*models.PostThread, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, fmt.Errorf("%w: post id is required", ErrInvalidInput)
	}

	q := searchQuery{
		Query:       "conversation_id:" + postID,
		TweetFields: replyFields,
		Expansions:  authorExpansion,
		UserFields:  authorUserFields,
		MaxResults:  repliesMaxResults,
	}

	var env apiEnvelope
	if err := a.do(ctx, accessToken, "get_post_replies", http.MethodGet, "/tweets/search/recent", q, nil, &env); err != nil {
		return nil, err
	}

	thread := &models.PostThread{
		Posts:       []models.Post{},
		Authors:     env.Includes.Users,
		ResultCount: env.Meta.ResultCount,
	}
	// Порожній результат пошуку приходить без data
	if env.hasData() {
		if err := json.Unmarshal(env.Data, &thread.Posts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	return thread, nil
}

// client повертає http.Client з bearer токеном
func (a *twitterAPIClient) client(ctx context.Context, accessToken string) *http.Client {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	client.Timeout = a.timeout
	return client
}

// do виконує запит до Twitter API і декодує обгортку відповіді
func (a *twitterAPIClient) do(ctx context.Context, accessToken, operation, method, path string, params interface{}, body interface{}, out *apiEnvelope) error {
	if accessToken == "" {
		return ErrUnauthenticated
	}

	endpoint := a.baseURL + path
	if params != nil {
		values, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("failed to encode query for %s: %w", operation, err)
		}
		endpoint += "?" + values.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode body for %s: %w", operation, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", build.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client(ctx, accessToken).Do(req)
	if err != nil {
		apiRequestsTotal.WithLabelValues(operation, statusLabel(0)).Inc()
		return fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	apiRequestsTotal.WithLabelValues(operation, statusLabel(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.WithFields(logrus.Fields{
			"operation":   operation,
			"status_code": resp.StatusCode,
			"response":    string(respBody),
		}).Error("Twitter API returned error")

		return &ProviderError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, operation, err)
	}

	return nil
}

func decodeData(env *apiEnvelope, out interface{}) error {
	if !env.hasData() {
		return fmt.Errorf("%w: data is missing", ErrMalformedResponse)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func decodeUser(env *apiEnvelope) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := decodeData(env, &user); err != nil {
		return nil, err
	}
	if user.ID == "" || user.Username == "" {
		return nil, fmt.Errorf("%w: user id or username is missing", ErrMalformedResponse)
	}
	return &user, nil
}
