package models

// TokenSet представляє набір токенів, виданий Twitter після обміну коду або refresh
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// HasRefreshToken повідомляє чи провайдер видав offline-доступ
func (t *TokenSet) HasRefreshToken() bool {
	return t.RefreshToken != ""
}

// CallbackParams представляє параметри redirect'у від Twitter
type CallbackParams struct {
	Code  string `form:"code"`
	State string `form:"state"`
	Error string `form:"error"`
}

// RefreshResponse відповідь на успішне оновлення токенів
type RefreshResponse struct {
	Success   bool   `json:"success"`
	ExpiresIn int64  `json:"expires_in"`
	Scope     string `json:"scope,omitempty"`
}
