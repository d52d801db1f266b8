package credentials

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Cookie lifetimes.
const (
	AccessCookieTTL  = 24 * time.Hour
	RefreshCookieTTL = 7 * 24 * time.Hour
)

var _ Repo = (*CookieRepo)(nil)

// CookieRepo is the cookie tier: both members live as cookies in a jar scoped
// to the backend URL. The access cookie expires sooner than the refresh cookie,
// so Load can return a pair holding only the refresh token.
type CookieRepo struct {
	jar     http.CookieJar
	u       *url.URL
	file    string
	nowFunc func() time.Time
	mu      sync.Mutex
}

type CookieOption func(*CookieRepo)

// WithJar shares an existing jar, e.g. the one used by the HTTP client.
func WithJar(jar http.CookieJar) CookieOption {
	return func(r *CookieRepo) {
		r.jar = jar
	}
}

// WithCookieFile persists the cookies written by the repo so they survive restarts.
func WithCookieFile(path string) CookieOption {
	return func(r *CookieRepo) {
		r.file = path
	}
}

func WithCookieNowFunc(now func() time.Time) CookieOption {
	return func(r *CookieRepo) {
		r.nowFunc = now
	}
}

type persistedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

func NewCookieRepo(baseURL string, opts ...CookieOption) (*CookieRepo, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("[NewCookieRepo] invalid base url %q", baseURL)
	}

	r := &CookieRepo{u: u, nowFunc: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("[NewCookieRepo] create jar: %w", err)
		}
		r.jar = jar
	}
	if err := r.restore(); err != nil {
		return nil, err
	}
	return r, nil
}

// Jar returns the cookie jar backing the repo.
func (r *CookieRepo) Jar() http.CookieJar {
	return r.jar
}

func (r *CookieRepo) Save(pair Pair) error {
	if err := validate(pair); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	entries := []persistedCookie{
		{Name: AccessKey, Value: pair.Access, Expires: now.Add(AccessCookieTTL)},
		{Name: RefreshKey, Value: pair.Refresh, Expires: now.Add(RefreshCookieTTL)},
	}
	// The jar only changes once the file has, so a failed Save leaves both as they were.
	if err := r.persist(entries); err != nil {
		return err
	}
	r.jar.SetCookies(r.u, r.cookies(entries))
	log.Debug().Str("store", "cookie").Str("host", r.u.Host).Msg("credentials saved")
	return nil
}

func (r *CookieRepo) Load() (Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pair Pair
	for _, c := range r.jar.Cookies(r.u) {
		switch c.Name {
		case AccessKey:
			pair.Access = c.Value
		case RefreshKey:
			pair.Refresh = c.Value
		}
	}
	if pair.IsZero() {
		return Pair{}, ErrNoCredential
	}
	return pair, nil
}

func (r *CookieRepo) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	expired := []*http.Cookie{
		{Name: AccessKey, Path: "/", MaxAge: -1},
		{Name: RefreshKey, Path: "/", MaxAge: -1},
	}
	r.jar.SetCookies(r.u, expired)

	if r.file != "" {
		if err := os.Remove(r.file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove cookie file: %w", err)
		}
	}
	log.Debug().Str("store", "cookie").Str("host", r.u.Host).Msg("credentials cleared")
	return nil
}

func (r *CookieRepo) cookies(entries []persistedCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(entries))
	for _, e := range entries {
		out = append(out, &http.Cookie{
			Name:     e.Name,
			Value:    e.Value,
			Path:     "/",
			Expires:  e.Expires,
			Secure:   r.u.Scheme == "https",
			SameSite: http.SameSiteLaxMode,
		})
	}
	return out
}

func (r *CookieRepo) persist(entries []persistedCookie) error {
	if r.file == "" {
		return nil
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode cookie file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.file), 0o700); err != nil {
		return fmt.Errorf("mkdir cookie dir: %w", err)
	}
	tmp := r.file + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	if err := os.Rename(tmp, r.file); err != nil {
		return fmt.Errorf("replace cookie file: %w", err)
	}
	return nil
}

// restore loads unexpired cookies from the cookie file into the jar.
func (r *CookieRepo) restore() error {
	if r.file == "" {
		return nil
	}
	// #nosec G304 -- path comes from configuration
	b, err := os.ReadFile(r.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cookie file: %w", err)
	}

	var entries []persistedCookie
	if err := json.Unmarshal(b, &entries); err != nil {
		log.Warn().Err(err).Str("path", r.file).Msg("ignoring unreadable cookie file")
		return nil
	}

	now := r.nowFunc()
	live := entries[:0]
	for _, e := range entries {
		if now.Before(e.Expires) {
			live = append(live, e)
		}
	}
	if len(live) > 0 {
		r.jar.SetCookies(r.u, r.cookies(live))
	}
	return nil
}
