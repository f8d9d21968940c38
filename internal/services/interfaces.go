package services

import (
	"context"

	"twitter-oauth/internal/credstore"
	"twitter-oauth/internal/models"
)

// AuthService інтерфейс OAuth flow та життєвого циклу credentials однієї сесії
type AuthService interface {
	BeginLogin(ctx context.Context, store credstore.Store) (string, error)
	HandleCallback(ctx context.Context, store credstore.Store, params models.CallbackParams) (*models.UserProfile, error)
	Logout(ctx context.Context, store credstore.Store) error
	RefreshSession(ctx context.Context, store credstore.Store) (*models.TokenSet, error)
	CurrentProfile(ctx context.Context, store credstore.Store) (*models.UserProfile, error)
	AccessToken(ctx context.Context, store credstore.Store) (string, error)
}

// TokenExchangeClient інтерфейс ендпоінту токенів Twitter
type TokenExchangeClient interface {
	ExchangeCode(ctx context.Context, code, verifier string) (*models.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenSet, error)
}

// APIClient інтерфейс Twitter API v2 з bearer токеном
type APIClient interface {
	GetCurrentUser(ctx context.Context, accessToken string) (*models.UserProfile, error)
	GetUserByUsername(ctx context.Context, accessToken, username string) (*models.UserProfile, error)
	CreatePost(ctx context.Context, accessToken, text, replyToID string) (*models.Post, error)
	CreateDirectMessage(ctx context.Context, accessToken, recipientID, text string) (*models.MessageEvent, error)
	GetPost(ctx context.Context, accessToken, postID string) (*models.PostWithAuthors, error)
	GetPostReplies(ctx context.Context, accessToken, postID string) (*models.PostThread, error)
}
