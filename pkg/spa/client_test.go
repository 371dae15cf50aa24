package spa

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/saascannon/saascannon-vango/pkg/saascannon"
)

func TestOptionsValidate(t *testing.T) {
	err := (&Options{}).Validate()
	if !errors.Is(err, ErrMissingDomain) || !errors.Is(err, ErrMissingClientID) {
		t.Errorf("Validate() = %v, want both missing fields", err)
	}
	if err := (&Options{Domain: "acme.saascannon.app", ClientID: "spa_1"}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if _, err := New(Options{Domain: "acme.saascannon.app"}); !errors.Is(err, ErrMissingClientID) {
		t.Errorf("New() error = %v, want ErrMissingClientID", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	tests := []struct {
		domain string
		base   string
	}{
		{"acme.saascannon.app", "https://acme.saascannon.app"},
		{"acme.saascannon.app/", "https://acme.saascannon.app"},
		{"http://localhost:9000", "http://localhost:9000"},
	}
	for _, tt := range tests {
		if got := (Options{Domain: tt.domain}).BaseURL(); got != tt.base {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.domain, got, tt.base)
		}
	}

	o := Options{RedirectURI: "https://app.example.com/callback"}.withDefaults()
	if o.PostLogoutRedirectURI != "https://app.example.com" {
		t.Errorf("PostLogoutRedirectURI = %q", o.PostLogoutRedirectURI)
	}
	if len(o.Scopes) == 0 || o.Store == nil || o.Clock == nil || o.HTTPClient == nil {
		t.Errorf("withDefaults() left fields empty: %+v", o)
	}
}

func TestLoginViaRedirect(t *testing.T) {
	tn := newTenant(t)
	nav := &navigations{}
	c := tn.newClient(nav)

	err := c.LoginViaRedirect(context.Background(),
		saascannon.WithLoginHint("ada@example.com"),
		saascannon.WithParam("ui_locales", "de"),
	)
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(nav.last())
	if err != nil {
		t.Fatal(err)
	}
	if u.Path != authorizePath {
		t.Errorf("path = %q, want %q", u.Path, authorizePath)
	}
	q := u.Query()
	want := map[string]string{
		"client_id":             "spa_test",
		"redirect_uri":          "https://app.example.com/callback",
		"response_type":         "code",
		"code_challenge_method": "S256",
		"audience":              "https://api.example.com",
		"login_hint":            "ada@example.com",
		"ui_locales":            "de",
	}
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if q.Get("code_challenge") == "" || q.Get("state") == "" {
		t.Error("missing code_challenge or state")
	}
	if q.Has("screen_hint") {
		t.Error("login should not carry screen_hint")
	}
	if !strings.Contains(q.Get("scope"), "openid") {
		t.Errorf("scope = %q", q.Get("scope"))
	}
}

func TestSignupViaRedirect(t *testing.T) {
	tn := newTenant(t)
	nav := &navigations{}
	c := tn.newClient(nav)

	if err := c.SignupViaRedirect(context.Background()); err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse(nav.last())
	if got := u.Query().Get("screen_hint"); got != "signup" {
		t.Errorf("screen_hint = %q, want signup", got)
	}
}

func TestRedirectWithoutNavigator(t *testing.T) {
	tn := newTenant(t)
	c := tn.newClient(nil)

	if err := c.LoginViaRedirect(context.Background()); !errors.Is(err, ErrNoNavigator) {
		t.Errorf("LoginViaRedirect() = %v, want ErrNoNavigator", err)
	}
}

func TestHandleRedirectCallback(t *testing.T) {
	tn := newTenant(t)
	nav := &navigations{}
	c := tn.newClient(nav)
	changed := waitEvent(c, saascannon.EventAuthStateChanged)

	if err := c.LoginViaRedirect(context.Background(), saascannon.WithReturnTo("/billing")); err != nil {
		t.Fatal(err)
	}
	code, state := tn.authorize(nav.last(), "u1")

	returnTo, err := c.HandleRedirectCallback(context.Background(), code, state)
	if err != nil {
		t.Fatalf("HandleRedirectCallback() error = %v", err)
	}
	receive(t, changed)

	if returnTo != "/billing" {
		t.Errorf("returnTo = %q, want /billing", returnTo)
	}
	if u := c.User(); u == nil || u.ID != "u1" || u.Email != "u1@example.com" {
		t.Errorf("User() = %+v", u)
	}
	if tok, _ := c.opts.Store.LoadToken(); tok == nil || tok.RefreshToken != "refresh-u1" {
		t.Errorf("stored token = %+v", tok)
	}

	// The state is single use.
	if _, err := c.HandleRedirectCallback(context.Background(), code, state); !errors.Is(err, ErrInvalidState) {
		t.Errorf("replayed callback error = %v, want ErrInvalidState", err)
	}
}

func TestHandleRedirectCallbackErrors(t *testing.T) {
	tn := newTenant(t)
	nav := &navigations{}
	c := tn.newClient(nav)

	if _, err := c.HandleRedirectCallback(context.Background(), "code", "unknown"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("unknown state error = %v, want ErrInvalidState", err)
	}

	if err := c.LoginViaRedirect(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, state := tn.authorize(nav.last(), "u1")

	_, err := c.HandleRedirectCallback(context.Background(), "forged", state)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != 400 || apiErr.Code != "invalid_grant" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if c.User() != nil {
		t.Error("failed callback signed a user in")
	}
}

func TestLoadAuthStateWithoutToken(t *testing.T) {
	tn := newTenant(t)
	c := tn.newClient(nil)
	loaded := waitEvent(c, saascannon.EventAuthStateLoaded)

	c.LoadAuthState(context.Background())
	receive(t, loaded)

	if c.User() != nil {
		t.Errorf("User() = %+v, want nil", c.User())
	}
}

func TestLoadAuthStateVerifiesStoredToken(t *testing.T) {
	tn := newTenant(t)
	opts := tn.options(nil)
	opts.Store = NewMemoryStore()
	opts.Store.SaveToken(tn.token("u1", "billing:read", "billing:write"))
	c, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	loaded := waitEvent(c, saascannon.EventAuthStateLoaded)

	c.LoadAuthState(context.Background())
	receive(t, loaded)

	if u := c.User(); u == nil || u.ID != "u1" {
		t.Fatalf("User() = %+v", u)
	}
	if !c.HasPermissions("billing:read", "billing:write") {
		t.Error("HasPermissions() = false for granted permissions")
	}
	if tn.refreshCount() != 0 {
		t.Errorf("refreshes = %d, want 0", tn.refreshCount())
	}
}

func TestLoadAuthStateRejectsForeignSignature(t *testing.T) {
	tn := newTenant(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	opts := tn.options(nil)
	store := NewMemoryStore()
	tok := tn.token("mallory")
	tok.AccessToken = tn.accessToken(other, "mallory")
	store.SaveToken(tok)
	opts.Store = store
	c, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	loaded := waitEvent(c, saascannon.EventAuthStateLoaded)

	c.LoadAuthState(context.Background())
	receive(t, loaded)

	if c.User() != nil {
		t.Error("a token signed by another key was accepted")
	}
	if tok, _ := store.LoadToken(); tok != nil {
		t.Error("rejected token was kept in the store")
	}
}

func TestLoadAuthStateRefreshesExpiredToken(t *testing.T) {
	tn := newTenant(t)
	opts := tn.options(nil)
	store := NewMemoryStore()
	store.SaveToken(tn.token("u1"))
	opts.Store = store
	c, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	loaded := waitEvent(c, saascannon.EventAuthStateLoaded)

	tn.clock.Advance(2 * time.Hour)
	tn.expiresIn = 4 * 3600
	c.LoadAuthState(context.Background())
	receive(t, loaded)

	if tn.refreshCount() != 1 {
		t.Errorf("refreshes = %d, want 1", tn.refreshCount())
	}
	if u := c.User(); u == nil || u.ID != "u1" {
		t.Errorf("User() = %+v", u)
	}
}

func TestLoadAuthStateWithExpiredTokenAndNoRefreshToken(t *testing.T) {
	tn := newTenant(t)
	opts := tn.options(nil)
	store := NewMemoryStore()
	tok := tn.token("u1")
	tok.RefreshToken = ""
	store.SaveToken(tok)
	opts.Store = store
	c, _ := New(opts)
	loaded := waitEvent(c, saascannon.EventAuthStateLoaded)

	tn.clock.Advance(2 * time.Hour)
	c.LoadAuthState(context.Background())
	receive(t, loaded)

	if c.User() != nil {
		t.Error("expired token without refresh token kept the user signed in")
	}
}

func TestGetAccessToken(t *testing.T) {
	tn := newTenant(t)
	c := tn.newClient(nil)

	if _, err := c.GetAccessToken(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("GetAccessToken() error = %v, want ErrNotAuthenticated", err)
	}

	tok := tn.token("u1")
	if err := c.adopt(tok); err != nil {
		t.Fatal(err)
	}
	got, err := c.GetAccessToken(context.Background())
	if err != nil || got != tok.AccessToken {
		t.Errorf("GetAccessToken() = %q, %v", got, err)
	}
}

func TestGetAccessTokenSharesRefresh(t *testing.T) {
	tn := newTenant(t)
	c := tn.newClient(nil)
	if err := c.adopt(tn.token("u1")); err != nil {
		t.Fatal(err)
	}

	gate := make(chan struct{})
	tn.mu.Lock()
	tn.refreshGate = gate
	tn.expiresIn = 4 * 3600
	tn.mu.Unlock()
	tn.clock.Advance(2 * time.Hour)

	const callers = 5
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = c.GetAccessToken(context.Background())
		}(i)
	}

	deadline := time.Now().Add(2 * time.Second)
	for tn.refreshCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if n := tn.refreshCount(); n != 1 {
		t.Errorf("refreshes = %d, want 1", n)
	}
	for i := range tokens {
		if errs[i] != nil || tokens[i] == "" || tokens[i] != tokens[0] {
			t.Errorf("caller %d got %q, %v", i, tokens[i], errs[i])
		}
	}
}

func TestLogoutDiscardsRefreshInFlight(t *testing.T) {
	tn := newTenant(t)
	c := tn.newClient(&navigations{})
	if err := c.adopt(tn.token("u1")); err != nil {
		t.Fatal(err)
	}

	gate := make(chan struct{})
	tn.mu.Lock()
	tn.refreshGate = gate
	tn.expiresIn = 4 * 3600
	tn.mu.Unlock()
	tn.clock.Advance(2 * time.Hour)

	errc := make(chan error, 1)
	go func() {
		_, err := c.GetAccessToken(context.Background())
		errc <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for tn.refreshCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := c.LogoutViaRedirect(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(gate)

	if err := <-errc; !errors.Is(err, ErrSessionChanged) {
		t.Errorf("GetAccessToken() error = %v, want ErrSessionChanged", err)
	}
	if c.User() != nil {
		t.Error("refresh signed the user back in after logout")
	}
	if tok, _ := c.opts.Store.LoadToken(); tok != nil {
		t.Errorf("store holds %+v after logout", tok)
	}
}

func TestHasPermissions(t *testing.T) {
	tn := newTenant(t)
	c := tn.newClient(nil)

	if c.HasPermissions("billing:read") {
		t.Error("HasPermissions() = true without a user")
	}
	if !c.HasPermissions() {
		t.Error("HasPermissions() with no permissions should be true")
	}

	if err := c.adopt(tn.token("u1", "billing:read", "team:admin")); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		perms []string
		want  bool
	}{
		{nil, true},
		{[]string{"billing:read"}, true},
		{[]string{"billing:read", "team:admin"}, true},
		{[]string{"billing:read", "billing:write"}, false},
		{[]string{"root"}, false},
	}
	for _, tt := range tests {
		if got := c.HasPermissions(tt.perms...); got != tt.want {
			t.Errorf("HasPermissions(%v) = %v, want %v", tt.perms, got, tt.want)
		}
	}
}

func TestLogoutViaRedirect(t *testing.T) {
	tn := newTenant(t)
	nav := &navigations{}
	c := tn.newClient(nav)
	if err := c.adopt(tn.token("u1")); err != nil {
		t.Fatal(err)
	}
	c.opts.Store.SaveToken(tn.token("u1"))
	changed := waitEvent(c, saascannon.EventAuthStateChanged)

	if err := c.LogoutViaRedirect(context.Background()); err != nil {
		t.Fatal(err)
	}
	receive(t, changed)

	if c.User() != nil {
		t.Error("user still signed in after logout")
	}
	if tok, _ := c.opts.Store.LoadToken(); tok != nil {
		t.Error("token still stored after logout")
	}
	u, _ := url.Parse(nav.last())
	if u.Path != logoutPath || u.Query().Get("client_id") != "spa_test" ||
		u.Query().Get("returnTo") != "https://app.example.com" {
		t.Errorf("logout URL = %s", nav.last())
	}

	if err := c.LogoutViaRedirect(context.Background(), saascannon.WithReturnTo("https://app.example.com/bye")); err != nil {
		t.Fatal(err)
	}
	u, _ = url.Parse(nav.last())
	if got := u.Query().Get("returnTo"); got != "https://app.example.com/bye" {
		t.Errorf("returnTo = %q", got)
	}
}
