package models

import "time"

// UserProfile представляє профіль користувача Twitter.
// Кешована копія лише для відображення, не є credential.
type UserProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"name"`
	AvatarURL   string `json:"profile_image_url,omitempty"`
}

// PostMetrics публічні лічильники твіта
type PostMetrics struct {
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	LikeCount    int `json:"like_count"`
	QuoteCount   int `json:"quote_count"`
}

// Post представляє твіт
type Post struct {
	ID               string       `json:"id"`
	Text             string       `json:"text"`
	AuthorID         string       `json:"author_id,omitempty"`
	ConversationID   string       `json:"conversation_id,omitempty"`
	InReplyToUserID  string       `json:"in_reply_to_user_id,omitempty"`
	CreatedAt        *time.Time   `json:"created_at,omitempty"`
	PublicMetrics    *PostMetrics `json:"public_metrics,omitempty"`
	EditHistoryPosts []string     `json:"edit_history_tweet_ids,omitempty"`
}

// PostWithAuthors твіт разом з розгорнутими авторами
type PostWithAuthors struct {
	Post    Post          `json:"data"`
	Authors []UserProfile `json:"users,omitempty"`
}

// PostThread відповіді у розмові
type PostThread struct {
	Posts       []Post        `json:"data"`
	Authors     []UserProfile `json:"users,omitempty"`
	ResultCount int           `json:"result_count"`
}

// MessageEvent представляє надіслане приватне повідомлення
type MessageEvent struct {
	EventID        string `json:"dm_event_id"`
	ConversationID string `json:"dm_conversation_id"`
	RecipientID    string `json:"recipient_id"`
	Text           string `json:"text"`
}

// CreatePostRequest запит на створення твіта
type CreatePostRequest struct {
	Text           string `json:"text"`
	ReplyToTweetID string `json:"replyToTweetId,omitempty"`
}

// SendMessageRequest запит на надсилання приватного повідомлення
type SendMessageRequest struct {
	RecipientUsername string `json:"recipientUsername,omitempty"`
	RecipientID       string `json:"recipientId,omitempty"`
	Text              string `json:"text"`
}
