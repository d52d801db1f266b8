package auth

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/coursehub-session/credentials"
)

// Token returns a bearer token with an unexpired access token, renewing it
// first when needed. It returns credentials.ErrNoCredential when anonymous.
func (s *Service) Token(ctx context.Context) (*oauth2.Token, error) {
	pair, err := s.repo.Load()
	if err != nil {
		return nil, err
	}
	if pair.Access == "" || s.inspector.IsExpired(pair.Access) {
		if pair, err = s.renew(ctx); err != nil {
			return nil, err
		}
	}

	tok := pair.OAuth2Token()
	if identity, err := s.inspector.Decode(pair.Access); err == nil {
		tok.Expiry = identity.ExpiresAt
	}
	return tok, nil
}

// Transport wraps base so every request carries the current access token.
// When no usable token can be obtained the request is sent without one and the
// backend's 401 is the caller's signal.
func (s *Service) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{service: s, base: base}
}

// HTTPClient returns a client that sends requests through Transport.
func (s *Service) HTTPClient() *http.Client {
	return &http.Client{
		Transport: s.Transport(nil),
		Timeout:   s.requestTimeout,
	}
}

type transport struct {
	service *Service
	base    http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	tok, err := t.service.Token(req.Context())
	switch {
	case err == nil:
		tok.SetAuthHeader(out)
	case errors.Is(err, credentials.ErrNoCredential):
		// anonymous
	default:
		log.Debug().Err(err).Str("url", req.URL.Redacted()).Msg("sending request without credentials")
	}
	return t.base.RoundTrip(out)
}
