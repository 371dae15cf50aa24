package spa

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/saascannon/saascannon-vango/pkg/saascannon"
)

// Client is a Saascannon client for server-rendered single-page apps. It
// runs the authorization code flow with PKCE against the tenant domain,
// keeps the tokens in its TokenStore and derives the user from the
// access token.
//
// A Client is safe for concurrent use.
type Client struct {
	opts   Options
	oauth  *oauth2.Config
	events Emitter
	parser *jwt.Parser
	tracer trace.Tracer
	logger *slog.Logger

	mu     sync.RWMutex
	token  *oauth2.Token
	claims *Claims
	user   *saascannon.User
	// gen moves on every sign-in and sign-out. Tokens fetched under an
	// older generation are discarded.
	gen uint64

	refreshes singleflight.Group

	account *accountAPI
	shop    *shopAPI
}

var _ saascannon.Client = (*Client)(nil)

// New creates a client. It performs no I/O.
func New(opts Options) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	c := &Client{
		opts:   opts,
		oauth:  opts.oauthConfig(),
		parser: newParser(opts),
		tracer: otel.Tracer(opts.TracerName),
		logger: opts.Logger.With("component", "saascannon"),
	}
	c.account = &accountAPI{c: c}
	c.shop = &shopAPI{c: c}
	return c, nil
}

// On implements saascannon.Client.
func (c *Client) On(event saascannon.Event, fn func()) (off func()) {
	return c.events.On(event, fn)
}

// LoadAuthState loads the stored token in the background, refreshing it
// when it has expired, and then emits EventAuthStateLoaded. The event is
// emitted once per call, also when loading fails; the client then has
// no user.
func (c *Client) LoadAuthState(ctx context.Context) {
	go func() {
		defer c.events.Emit(saascannon.EventAuthStateLoaded)
		if err := c.loadAuthState(ctx); err != nil {
			c.logger.Warn("load auth state failed", "error", err)
		}
	}()
}

func (c *Client) loadAuthState(ctx context.Context) (err error) {
	ctx, span := c.startSpan(ctx, "saascannon.LoadAuthState")
	defer func() { endSpan(span, err) }()

	gen := c.generation()
	tok, err := c.opts.Store.LoadToken()
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if tok == nil {
		c.clearAt(gen)
		return nil
	}

	if c.expired(tok) {
		if tok.RefreshToken == "" {
			c.forget()
			return nil
		}
		span.AddEvent("refresh")
		if tok, err = c.refresh(ctx, gen, tok); err != nil {
			return c.dropOnFailure(err)
		}
	}

	if err := c.adoptAt(gen, tok); err != nil {
		return c.dropOnFailure(err)
	}
	span.SetAttributes(attribute.Bool("saascannon.authenticated", true))
	return nil
}

// User implements saascannon.Client.
func (c *Client) User() *saascannon.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Claims returns the claims of the current access token, or nil.
func (c *Client) Claims() *Claims {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.claims
}

// LoginViaRedirect sends the browser to the hosted login page.
func (c *Client) LoginViaRedirect(ctx context.Context, opts ...saascannon.RedirectOption) error {
	return c.authorize(ctx, "", opts...)
}

// SignupViaRedirect sends the browser to the hosted signup page.
func (c *Client) SignupViaRedirect(ctx context.Context, opts ...saascannon.RedirectOption) error {
	return c.authorize(ctx, "signup", opts...)
}

func (c *Client) authorize(ctx context.Context, screenHint string, opts ...saascannon.RedirectOption) error {
	o := saascannon.ApplyRedirectOptions(opts...)

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	err := c.opts.Store.SaveTransaction(state, Transaction{
		Verifier:  verifier,
		ReturnTo:  o.ReturnTo,
		CreatedAt: c.opts.Clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("save login transaction: %w", err)
	}

	params := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
	if c.opts.Audience != "" {
		params = append(params, oauth2.SetAuthURLParam("audience", c.opts.Audience))
	}
	if screenHint != "" {
		params = append(params, oauth2.SetAuthURLParam("screen_hint", screenHint))
	}
	if o.LoginHint != "" {
		params = append(params, oauth2.SetAuthURLParam("login_hint", o.LoginHint))
	}
	for k, v := range o.Params {
		params = append(params, oauth2.SetAuthURLParam(k, v))
	}

	c.logger.DebugContext(ctx, "redirecting to authorize", "screen_hint", screenHint)
	return c.navigate(c.oauth.AuthCodeURL(state, params...))
}

// HandleRedirectCallback completes a login started by LoginViaRedirect or
// SignupViaRedirect and emits EventAuthStateChanged. It returns the
// ReturnTo of the login.
func (c *Client) HandleRedirectCallback(ctx context.Context, code, state string) (returnTo string, err error) {
	ctx, span := c.startSpan(ctx, "saascannon.HandleRedirectCallback")
	defer func() { endSpan(span, err) }()

	tx, ok := c.opts.Store.TakeTransaction(state)
	if !ok {
		return "", ErrInvalidState
	}

	tok, err := c.oauth.Exchange(c.httpContext(ctx), code, oauth2.VerifierOption(tx.Verifier))
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", asAPIError(err))
	}
	gen := c.nextGeneration()
	if err := c.save(gen, tok); err != nil {
		return "", err
	}
	if err := c.adoptAt(gen, tok); err != nil {
		return "", err
	}

	c.events.Emit(saascannon.EventAuthStateChanged)
	return tx.ReturnTo, nil
}

// LogoutViaRedirect forgets the tokens, emits EventAuthStateChanged and
// sends the browser to the hosted logout page.
func (c *Client) LogoutViaRedirect(ctx context.Context, opts ...saascannon.RedirectOption) error {
	o := saascannon.ApplyRedirectOptions(opts...)

	if err := c.signOut(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	c.events.Emit(saascannon.EventAuthStateChanged)

	q := url.Values{"client_id": {c.opts.ClientID}}
	if returnTo := cmp.Or(o.ReturnTo, c.opts.PostLogoutRedirectURI); returnTo != "" {
		q.Set("returnTo", returnTo)
	}
	c.logger.DebugContext(ctx, "redirecting to logout")
	return c.navigate(c.opts.BaseURL() + logoutPath + "?" + q.Encode())
}

// GetAccessToken returns the current access token, refreshing it first
// when it is about to expire. Concurrent refreshes share one request.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	tok, gen := c.token, c.gen
	c.mu.RUnlock()

	if tok == nil {
		return "", ErrNotAuthenticated
	}
	if !c.expired(tok) {
		return tok.AccessToken, nil
	}
	if tok.RefreshToken == "" {
		return "", fmt.Errorf("%w: access token expired", ErrNotAuthenticated)
	}

	fresh, err := c.refresh(ctx, gen, tok)
	if err != nil {
		return "", err
	}
	if err := c.adoptAt(gen, fresh); err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

// HasPermissions reports whether the access token grants every one of
// perms. It is true for no perms.
func (c *Client) HasPermissions(perms ...string) bool {
	if len(perms) == 0 {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.claims == nil {
		return false
	}
	return lo.Every(c.claims.Permissions, perms)
}

// AccountManagement implements saascannon.Client.
func (c *Client) AccountManagement() saascannon.AccountManagement {
	return c.account
}

// ShopManagement implements saascannon.Client.
func (c *Client) ShopManagement() saascannon.ShopManagement {
	return c.shop
}

// refresh exchanges the refresh token of tok. Callers of the same
// generation share one request.
func (c *Client) refresh(ctx context.Context, gen uint64, tok *oauth2.Token) (*oauth2.Token, error) {
	v, err, _ := c.refreshes.Do("refresh:"+strconv.FormatUint(gen, 10), func() (any, error) {
		ctx, span := c.startSpan(ctx, "saascannon.RefreshToken")
		src := c.oauth.TokenSource(c.httpContext(ctx), &oauth2.Token{RefreshToken: tok.RefreshToken})
		fresh, err := src.Token()
		if err != nil {
			err = fmt.Errorf("refresh token: %w", asAPIError(err))
			endSpan(span, err)
			return nil, err
		}
		if err := c.save(gen, fresh); err != nil {
			endSpan(span, err)
			return nil, err
		}
		endSpan(span, nil)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

// adopt makes tok the current token.
func (c *Client) adopt(tok *oauth2.Token) error {
	return c.adoptAt(c.generation(), tok)
}

// adoptAt is adopt for a token fetched under generation gen.
func (c *Client) adoptAt(gen uint64, tok *oauth2.Token) error {
	claims, err := c.parseToken(tok.AccessToken)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return ErrSessionChanged
	}
	c.setStateLocked(tok, claims)
	return nil
}

// save stores tok unless the session changed since gen.
func (c *Client) save(gen uint64, tok *oauth2.Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return ErrSessionChanged
	}
	if err := c.opts.Store.SaveToken(tok); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (c *Client) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *Client) nextGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return c.gen
}

// signOut starts a new generation and drops the stored and current
// token.
func (c *Client) signOut() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if err := c.opts.Store.ClearToken(); err != nil {
		return err
	}
	c.setStateLocked(nil, nil)
	return nil
}

// forget is signOut for background failures.
func (c *Client) forget() {
	if err := c.signOut(); err != nil {
		c.logger.Warn("clear token failed", "error", err)
	}
}

// dropOnFailure forgets the token after a failed load, unless someone
// signed in or out meanwhile.
func (c *Client) dropOnFailure(err error) error {
	if errors.Is(err, ErrSessionChanged) {
		return nil
	}
	c.forget()
	return err
}

func (c *Client) clearAt(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.setStateLocked(nil, nil)
	}
}

func (c *Client) setStateLocked(tok *oauth2.Token, claims *Claims) {
	c.token = tok
	c.claims = claims
	c.user = nil
	if claims != nil {
		c.user = claims.User()
	}
}

func (c *Client) expired(tok *oauth2.Token) bool {
	if tok.AccessToken == "" {
		return true
	}
	return !tok.Expiry.IsZero() && tok.Expiry.Before(c.opts.Clock.Now().Add(expiryDelta))
}

func (c *Client) navigate(url string) error {
	if c.opts.Navigator == nil {
		return ErrNoNavigator
	}
	c.opts.Navigator.Navigate(url)
	return nil
}

func (c *Client) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.opts.HTTPClient)
}

func (c *Client) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("saascannon.domain", c.opts.Domain))
	return c.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// asAPIError converts an OAuth error response to an *APIError.
func asAPIError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return err
	}
	return &APIError{
		Status:  re.Response.StatusCode,
		Code:    re.ErrorCode,
		Message: cmp.Or(re.ErrorDescription, string(re.Body)),
	}
}
