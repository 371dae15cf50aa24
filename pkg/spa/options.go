package spa

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
)

const (
	authorizePath = "/oauth/authorize"
	tokenPath     = "/oauth/token"
	logoutPath    = "/logout"

	defaultTracerName = "github.com/saascannon/saascannon-vango/pkg/spa"

	// expiryDelta is how early a token counts as expired.
	expiryDelta = 30 * time.Second
)

// DefaultScopes are requested when Options.Scopes is empty.
var DefaultScopes = []string{"openid", "profile", "email", "offline_access"}

// Navigator sends the browser to another URL. vango.Ctx implements it.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(url string) { f(url) }

// Options configures a Client.
type Options struct {
	// Domain is the tenant domain, e.g. "acme.saascannon.app". A value
	// with a scheme is used as the base URL unchanged.
	Domain string

	// ClientID is the public client ID of the application.
	ClientID string

	// RedirectURI receives the authorization code.
	RedirectURI string

	// PostLogoutRedirectURI is where logout returns to. Default: the
	// origin of RedirectURI.
	PostLogoutRedirectURI string

	// Audience is requested for the access token when set.
	Audience string

	// Scopes default to DefaultScopes.
	Scopes []string

	// JWKSURL verifies access token signatures. Empty means tokens are
	// trusted as delivered by the token endpoint and parsed unverified.
	JWKSURL string

	// Keyfunc verifies access tokens and takes precedence over JWKSURL.
	Keyfunc jwt.Keyfunc

	// Issuer, when set, must match the iss claim.
	Issuer string

	// HTTPClient is used for every request. Default: http.DefaultClient.
	HTTPClient *http.Client

	// Store holds tokens and pending logins. Default: a MemoryStore.
	Store TokenStore

	// Navigator performs redirects. The provider fills it from the
	// session when unset.
	Navigator Navigator

	// Clock defaults to the real clock.
	Clock clockwork.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// TracerName names the OpenTelemetry tracer.
	TracerName string
}

// Validate reports every missing or malformed field.
func (o *Options) Validate() error {
	var errs []error
	if strings.TrimSpace(o.Domain) == "" {
		errs = append(errs, ErrMissingDomain)
	}
	if strings.TrimSpace(o.ClientID) == "" {
		errs = append(errs, ErrMissingClientID)
	}
	return errors.Join(errs...)
}

func (o Options) withDefaults() Options {
	if len(o.Scopes) == 0 {
		o.Scopes = DefaultScopes
	}
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	if o.Store == nil {
		o.Store = NewMemoryStore()
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.TracerName == "" {
		o.TracerName = defaultTracerName
	}
	if o.PostLogoutRedirectURI == "" {
		o.PostLogoutRedirectURI = origin(o.RedirectURI)
	}
	return o
}

// BaseURL returns the tenant base URL without a trailing slash.
func (o Options) BaseURL() string {
	domain := strings.TrimRight(o.Domain, "/")
	if strings.Contains(domain, "://") {
		return domain
	}
	return "https://" + domain
}

func (o *Options) oauthConfig() *oauth2.Config {
	base := o.BaseURL()
	return &oauth2.Config{
		ClientID: o.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + authorizePath,
			TokenURL:  base + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: o.RedirectURI,
		Scopes:      o.Scopes,
	}
}

// origin returns scheme://host of u, or u when it has no path.
func origin(u string) string {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return u
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host
}
