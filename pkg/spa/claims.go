package spa

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/saascannon/saascannon-vango/pkg/saascannon"
)

// Claims are the access token claims the client understands.
type Claims struct {
	jwt.RegisteredClaims
	Email         string   `json:"email,omitempty"`
	EmailVerified bool     `json:"email_verified,omitempty"`
	Name          string   `json:"name,omitempty"`
	Picture       string   `json:"picture,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
	Scope         string   `json:"scope,omitempty"`
}

// User converts the claims to a saascannon.User.
func (c *Claims) User() *saascannon.User {
	return &saascannon.User{
		ID:            c.Subject,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		Name:          c.Name,
		Picture:       c.Picture,
		Permissions:   c.Permissions,
	}
}

func newParser(o Options) *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(o.Clock.Now),
		jwt.WithLeeway(expiryDelta),
	}
	if o.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(o.Issuer))
	}
	if o.Audience != "" {
		opts = append(opts, jwt.WithAudience(o.Audience))
	}
	return jwt.NewParser(opts...)
}

// parseToken verifies raw against the configured keys, or only decodes
// it when none are configured.
func (c *Client) parseToken(raw string) (*Claims, error) {
	claims := &Claims{}

	kf, err := c.keyfunc()
	if err != nil {
		return nil, err
	}
	if kf == nil {
		if _, _, err := c.parser.ParseUnverified(raw, claims); err != nil {
			return nil, fmt.Errorf("parse access token: %w", err)
		}
		return claims, nil
	}

	if _, err := c.parser.ParseWithClaims(raw, claims, kf); err != nil {
		return nil, fmt.Errorf("verify access token: %w", err)
	}
	return claims, nil
}

func (c *Client) keyfunc() (jwt.Keyfunc, error) {
	if c.opts.Keyfunc != nil {
		return c.opts.Keyfunc, nil
	}
	if c.opts.JWKSURL == "" {
		return nil, nil
	}
	jwks, err := sharedJWKS(c.opts.JWKSURL, c.opts.HTTPClient, c.logger)
	if err != nil {
		return nil, err
	}
	return jwks.Keyfunc, nil
}

// Key sets are shared by every client in the process, one per URL, and
// refreshed in the background.
var jwksCache = struct {
	sync.Mutex
	sets  map[string]*keyfunc.JWKS
	group singleflight.Group
}{sets: make(map[string]*keyfunc.JWKS)}

func sharedJWKS(url string, client *http.Client, logger *slog.Logger) (*keyfunc.JWKS, error) {
	jwksCache.Lock()
	jwks, ok := jwksCache.sets[url]
	jwksCache.Unlock()
	if ok {
		return jwks, nil
	}

	v, err, _ := jwksCache.group.Do(url, func() (any, error) {
		jwks, err := keyfunc.Get(url, keyfunc.Options{
			Ctx:    context.Background(),
			Client: client,
			RefreshErrorHandler: func(err error) {
				logger.Warn("background refresh of JWKS failed", "url", url, "error", err)
			},
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch JWKS %s: %w", url, err)
		}

		jwksCache.Lock()
		jwksCache.sets[url] = jwks
		jwksCache.Unlock()
		return jwks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*keyfunc.JWKS), nil
}
