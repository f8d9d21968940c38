package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"twitter-oauth/internal/credstore"
	"twitter-oauth/internal/middleware"
	"twitter-oauth/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLandingURL = "http://app.example.test/dashboard"
	testHomeURL    = "http://app.example.test/"
)

// twitterStub імітує token endpoint та API v2 Twitter
type twitterStub struct {
	srv         *httptest.Server
	tokenCalls  atomic.Int32
	apiCalls    atomic.Int32
	tokenStatus int
	meStatus    int
	lastPost    map[string]interface{}
}

func newTwitterStub(t *testing.T) *twitterStub {
	t.Helper()

	stub := &twitterStub{tokenStatus: http.StatusOK, meStatus: http.StatusOK}
	mux := http.NewServeMux()

	mux.HandleFunc("/2/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		stub.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if stub.tokenStatus != http.StatusOK {
			w.WriteHeader(stub.tokenStatus)
			_, _ = io.WriteString(w, `{"error":"invalid_request"}`)
			return
		}
		_, _ = io.WriteString(w, `{"token_type":"bearer","expires_in":7200,"access_token":"at-1","refresh_token":"rt-1","scope":"tweet.read tweet.write users.read offline.access"}`)
	})

	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		stub.apiCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if stub.meStatus != http.StatusOK {
			w.WriteHeader(stub.meStatus)
			_, _ = io.WriteString(w, `{"title":"Forbidden"}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"id":"42","username":"alice","name":"Alice","profile_image_url":"https://pbs.example/a.jpg"}}`)
	})

	mux.HandleFunc("/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		stub.apiCalls.Add(1)
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&stub.lastPost)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"101","text":"hello"}}`)
	})

	mux.HandleFunc("/2/users/by/username/", func(w http.ResponseWriter, r *http.Request) {
		stub.apiCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/ghost") {
			_, _ = io.WriteString(w, `{"errors":[{"title":"Not Found Error"}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"id":"7","username":"bob","name":"Bob"}}`)
	})

	mux.HandleFunc("/2/dm_conversations/with/7/messages", func(w http.ResponseWriter, r *http.Request) {
		stub.apiCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"dm_conversation_id":"42-7","dm_event_id":"999"}}`)
	})

	stub.srv = httptest.NewServer(mux)
	t.Cleanup(stub.srv.Close)
	return stub
}

// testClient browser з cookie jar поверх gin engine
type testClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func (c *testClient) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return w
}

func newTestRouter(t *testing.T, stub *twitterStub, oauthCfg services.OAuthConfig) *testClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := services.NewAPIClient(stub.srv.URL+"/2", 5*time.Second)
	exchange := services.NewTokenExchangeClient(oauthCfg, 5*time.Second)
	authService := services.NewAuthService(oauthCfg, exchange, api, services.DefaultTokenPolicy())

	authHandler := NewAuthHandler(authService, testLandingURL, testHomeURL)
	apiHandler := NewAPIHandler(api)
	provider := credstore.NewCookieProvider("/")

	r := gin.New()
	r.Use(middleware.RequestID())

	auth := r.Group("/auth", middleware.CredentialStore(provider))
	auth.GET("/twitter", authHandler.Login)
	auth.GET("/twitter/callback", authHandler.Callback)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/me", authHandler.Me)

	apiGroup := r.Group("/api/twitter", middleware.CredentialStore(provider), middleware.RequireAccessToken(authService))
	apiGroup.POST("/tweet", apiHandler.CreateTweet)
	apiGroup.POST("/dm", apiHandler.SendDirectMessage)
	apiGroup.GET("/user", apiHandler.GetUser)

	return &testClient{t: t, router: r, cookies: map[string]*http.Cookie{}}
}

func stubOAuthConfig(stub *twitterStub) services.OAuthConfig {
	return services.OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/twitter/callback",
		TokenURL:     stub.srv.URL + "/2/oauth2/token",
	}
}

// login проходить begin-login і повертає state з URL авторизації
func login(t *testing.T, client *testClient) string {
	t.Helper()

	w := client.do(http.MethodGet, "/auth/twitter", nil)
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return location.Query().Get("state")
}

func redirectError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	require.Equal(t, http.StatusSeeOther, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "app.example.test", location.Host)
	assert.Equal(t, "/", location.Path)
	return location.Query().Get("error")
}

func TestLoginRedirectsToTwitter(t *testing.T) {
	stub := newTwitterStub(t)
	client := newTestRouter(t, stub, stubOAuthConfig(stub))

	w := client.do(http.MethodGet, "/auth/twitter", nil)
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "twitter.com", location.Host)
	assert.Equal(t, "S256", location.Query().Get("code_challenge_method"))
	assert.NotEmpty(t, location.Query().Get("code_challenge"))

	require.Contains(t, client.cookies, services.KeyState)
	require.Contains(t, client.cookies, services.KeyCodeVerifier)
	assert.Equal(t, location.Query().Get("state"), client.cookies[services.KeyState].Value)
	assert.True(t, client.cookies[services.KeyCodeVerifier].HttpOnly)
	assert.Equal(t, 600, client.cookies[services.KeyCodeVerifier].MaxAge)
}

func TestLoginWithoutConfig(t *testing.T) {
	stub := newTwitterStub(t)
	client := newTestRouter(t, stub, services.OAuthConfig{})

	w := client.do(http.MethodGet, "/auth/twitter", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, client.cookies)
}

func TestCallbackSuccessRedirectsToLanding(t *testing.T) {
	stub := newTwitterStub(t)
	client := newTestRouter(t, stub, stubOAuthConfig(stub))
	state := login(t, client)

	w := client.do(http.MethodGet, "/auth/twitter/callback?code=the-code&state="+url.QueryEscape(state), nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, testLandingURL, w.Header().Get("Location"))

	assert.Equal(t, "at-1", client.cookies[services.KeyAccessToken].Value)
	assert.Equal(t, 7200, client.cookies[services.KeyAccessToken].MaxAge)
	assert.Equal(t, "rt-1", client.cookies[services.KeyRefreshToken].Value)
	assert.False(t, client.cookies[services.KeyUser].HttpOnly)
	assert.NotContains(t, client.cookies, services.KeyState)
	assert.NotContains(t, client.cookies, services.KeyCodeVerifier)

	w = client.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestCallbackProviderDenied(t *testing.T) {
	stub := newTwitterStub(t)
	client := newTestRouter(t, stub, stubOAuthConfig(stub))
	login(t, client)

	w := client.do(http.MethodGet, "/auth/twitter/callback?error=access_denied&state=x", nil)
	assert.Equal(t, "access_denied", redirectError(t, w))
	assert.Zero(t, stub.tokenCalls.Load())
	assert.NotContains(t, client.cookies, services.KeyAccessToken)
}

func TestCallbackInvalidState(t *testing.T) {
	stub := newTwitterStub(t)
	client := newTestRouter(t, stub, stubOAuthConfig(stub))
	login(t, client)

	w := client.do(http.MethodGet, "/auth/twitter/callback?code=c&state=forged", nil)
	assert.Equal(t, "invalid_state", redirectError(t, w))
	assert.Zero(t, stub.tokenCalls.Load())
}

func TestCallbackMissingParams(t *testing.T) {
	stub := newTwitterStub(t)
	client := newTestRouter(t, stub, stubOAuthConfig(stub))
	login(t, client)

	w := client.do(http.MethodGet, "/auth/twitter/callback?code=c", nil)
	assert.Equal(t, "missing_code_or_state", redirectError(t, w))
}

func TestCallbackWithoutLogin(t *testing.T) {
	stub := newTwitterStub(t)
	client := newTestRouter(t, stub, stubOAuthConfig(stub))

	w := client.do(http.MethodGet, "/auth/twitter/callback?code=c&state=s", nil)
	assert.Equal(t, "invalid_state", redirectError(t, w))
}

func TestCallbackTokenExchangeRejected(t *testing.T) {
	stub := newTwitterStub(t)
	stub.tokenStatus = http.StatusBadRequest
	client := newTestRouter(t, stub, stubOAuthConfig(stub))
	state := login(t, client)

	w := client.do(http.MethodGet, "/auth/twitter/callback?code=c&state="+url.QueryEscape(state), nil)
	assert.Equal(t, "authentication_failed", redirectError(t, w))
	assert.Zero(t, stub.apiCalls.Load())
	assert.NotContains(t, client.cookies, services.KeyAccessToken)
}

func TestCallbackProfileFetchFailedStoresNothing(t *testing.T) {
	stub := newTwitterStub(t)
	stub.meStatus = http.StatusForbidden
	client := newTestRouter(t, stub, stubOAuthConfig(stub))
	state := login(t, client)

	w := client.do(http.MethodGet, "/auth/twitter/callback?code=c&state="+url.QueryEscape(state), nil)
	assert.Equal(t, "authentication_failed", redirectError(t, w))
	assert.NotContains(t, client.cookies, services.KeyAccessToken)
	assert.NotContains(t, client.cookies, services.KeyRefreshToken)
	assert.NotContains(t, client.cookies, services.KeyUser)
}

func TestCallbackConfigMissing(t *testing.T) {
	stub := newTwitterStub(t)
	cfg := stubOAuthConfig(stub)
	cfg.ClientSecret = ""
	client := newTestRouter(t, stub, cfg)
	state := login(t, client)

	w := client.do(http.MethodGet, "/auth/twitter/callback?code=c&state="+url.QueryEscape(state), nil)
	assert.Equal(t, "oauth_config_missing", redirectError(t, w))
	assert.Zero(t, stub.tokenCalls.Load())
}

func loggedInClient(t *testing.T, stub *twitterStub) *testClient {
	t.Helper()

	client := newTestRouter(t, stub, stubOAuthConfig(stub))
	state := login(t, client)
	w := client.do(http.MethodGet, "/auth/twitter/callback?code=c&state="+url.QueryEscape(state), nil)
	require.Equal(t, testLandingURL, w.Header().Get("Location"))
	return client
}

func TestCreateTweetRequiresLogin(t *testing.T) {
	stub := newTwitterStub(t)
	client := newTestRouter(t, stub, stubOAuthConfig(stub))

	w := client.do(http.MethodPost, "/api/twitter/tweet", map[string]string{"text": "hello"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, stub.apiCalls.Load())
}

func TestCreateTweet(t *testing.T) {
	stub := newTwitterStub(t)
	client := loggedInClient(t, stub)

	w := client.do(http.MethodPost, "/api/twitter/tweet", map[string]string{"text": "hello", "replyToTweetId": "100"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Tweet   struct {
			ID string `json:"id"`
		} `json:"tweet"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "101", resp.Tweet.ID)
	assert.Equal(t, map[string]interface{}{"in_reply_to_tweet_id": "100"}, stub.lastPost["reply"])
}

func TestCreateTweetTooLong(t *testing.T) {
	stub := newTwitterStub(t)
	client := loggedInClient(t, stub)
	before := stub.apiCalls.Load()

	w := client.do(http.MethodPost, "/api/twitter/tweet", map[string]string{"text": strings.Repeat("a", 281)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = client.do(http.MethodPost, "/api/twitter/tweet", map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, before, stub.apiCalls.Load())
}

func TestSendDirectMessageByUsername(t *testing.T) {
	stub := newTwitterStub(t)
	client := loggedInClient(t, stub)

	w := client.do(http.MethodPost, "/api/twitter/dm", map[string]string{"recipientUsername": "bob", "text": "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dm_event_id":"999"`)
}

func TestSendDirectMessageValidation(t *testing.T) {
	stub := newTwitterStub(t)
	client := loggedInClient(t, stub)

	w := client.do(http.MethodPost, "/api/twitter/dm", map[string]string{"recipientUsername": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = client.do(http.MethodPost, "/api/twitter/dm", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = client.do(http.MethodPost, "/api/twitter/dm", map[string]string{"recipientUsername": "ghost", "text": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUser(t *testing.T) {
	stub := newTwitterStub(t)
	client := loggedInClient(t, stub)

	w := client.do(http.MethodGet, "/api/twitter/user?username=bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"7"`)

	w = client.do(http.MethodGet, "/api/twitter/user", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = client.do(http.MethodGet, "/api/twitter/user?username=ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogoutIsIdempotent(t *testing.T) {
	stub := newTwitterStub(t)
	client := loggedInClient(t, stub)

	w := client.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.NotContains(t, client.cookies, services.KeyAccessToken)
	assert.NotContains(t, client.cookies, services.KeyUser)

	w = client.do(http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = client.do(http.MethodPost, "/api/twitter/tweet", map[string]string{"text": "hello"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = client.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshWithoutSession(t *testing.T) {
	stub := newTwitterStub(t)
	client := newTestRouter(t, stub, stubOAuthConfig(stub))

	w := client.do(http.MethodPost, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, stub.tokenCalls.Load())
}

func TestRefresh(t *testing.T) {
	stub := newTwitterStub(t)
	client := loggedInClient(t, stub)

	w := client.do(http.MethodPost, "/auth/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success   bool  `json:"success"`
		ExpiresIn int64 `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7200), resp.ExpiresIn)
	assert.Equal(t, int32(2), stub.tokenCalls.Load())
}
