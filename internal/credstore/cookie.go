package credstore

import (
	"context"
	"net/http"
	"net/url"
	"sync"
)

// cookieProvider зберігає кожен запис в окремому cookie браузера
type cookieProvider struct {
	path string
}

// NewCookieProvider створює Provider, що пише записи в cookies
func NewCookieProvider(path string) Provider {
	if path == "" {
		path = "/"
	}
	return &cookieProvider{path: path}
}

// Open прив'язує Store до запиту та відповіді
func (p *cookieProvider) Open(w http.ResponseWriter, r *http.Request) (Store, error) {
	return &cookieStore{
		w:       w,
		r:       r,
		path:    p.path,
		pending: make(map[string]*string),
	}, nil
}

// cookieStore реалізація Store поверх HTTP cookies.
// pending тримає записи цього запиту, щоб Get бачив попередні Set/Delete.
type cookieStore struct {
	w       http.ResponseWriter
	r       *http.Request
	path    string
	mutex   sync.Mutex
	pending map[string]*string
}

func (s *cookieStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if value, ok := s.pending[key]; ok {
		if value == nil {
			return "", false, nil
		}
		return *value, true, nil
	}

	cookie, err := s.r.Cookie(key)
	if err != nil {
		return "", false, nil
	}

	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return "", false, nil
	}
	if value == "" {
		return "", false, nil
	}

	return value, true, nil
}

func (s *cookieStore) Set(_ context.Context, key, value string, opts Options) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    url.QueryEscape(value),
		Path:     s.path,
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})

	v := value
	s.pending[key] = &v
	return nil
}

func (s *cookieStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	http.SetCookie(s.w, &http.Cookie{
		Name:   key,
		Value:  "",
		Path:   s.path,
		MaxAge: -1,
	})

	s.pending[key] = nil
	return nil
}
