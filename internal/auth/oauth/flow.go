// Package oauth builds the platform consent redirect and validates callbacks.
package oauth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pysugar/post-scheduler/internal/platforms"
	"golang.org/x/oauth2"
)

// PlaceholderCode is the authorization code handed to the callback when a
// platform has no real consent page configured.
const PlaceholderCode = "demo_code"

// ErrInvalidState is returned when a callback carries a foreign state token.
var ErrInvalidState = errors.New("invalid state token")

// Flow holds the CSRF state token for one process and the platform catalog.
type Flow struct {
	catalog *platforms.Catalog
	state   string
}

// NewFlow creates a Flow with a fresh random state token.
func NewFlow(catalog *platforms.Catalog) *Flow {
	// rand.Text carries 128 bits and cannot fail.
	return &Flow{catalog: catalog, state: rand.Text()}
}

// State returns the CSRF state token expected on callbacks.
func (f *Flow) State() string {
	return f.state
}

// ConnectURL returns where to send the user to connect platform. Platforms
// with configured OAuth endpoints get the real consent URL; the rest are
// sent straight to the callback with a placeholder code.
func (f *Flow) ConnectURL(r *http.Request, platform string) string {
	callback := CallbackURL(r, platform)
	if f.catalog != nil {
		if cfg, ok := f.catalog.OAuthConfig(platform, callback); ok {
			return cfg.AuthCodeURL(f.state, oauth2.AccessTypeOffline)
		}
	}
	q := url.Values{}
	q.Set("code", PlaceholderCode)
	q.Set("state", f.state)
	return callback + "?" + q.Encode()
}

// VerifyState accepts an empty state (direct callback calls) or the process token.
func (f *Flow) VerifyState(state string) error {
	if state != "" && state != f.state {
		return ErrInvalidState
	}
	return nil
}

// CallbackURL builds the absolute callback URL from the incoming request.
func CallbackURL(r *http.Request, platform string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/oauth/callback/%s", scheme, r.Host, url.PathEscape(platform))
}
