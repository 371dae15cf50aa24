package spa

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"

	"github.com/saascannon/saascannon-vango/pkg/saascannon"
)

const testKID = "test-key"

// tenant is a fake Saascannon tenant: token endpoint, JWKS and API.
type tenant struct {
	t     *testing.T
	srv   *httptest.Server
	key   *rsa.PrivateKey
	clock clockwork.FakeClock

	mu           sync.Mutex
	codes        map[string]grant
	refreshes    int
	refreshGate  chan struct{}
	expiresIn    int
	authHeaders  []string
	lastPatch    map[string]any
	lastCheckout map[string]string
}

type grant struct {
	challenge string
	subject   string
}

func newTenant(t *testing.T) *tenant {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	tn := &tenant{
		t:         t,
		key:       key,
		clock:     clockwork.NewFakeClockAt(time.Now()),
		codes:     make(map[string]grant),
		expiresIn: 3600,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", tn.serveToken)
	mux.HandleFunc("GET /.well-known/jwks.json", tn.serveJWKS)
	mux.HandleFunc("GET "+accountPath, tn.api(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, saascannon.Account{ID: "acc_1", Email: "ada@example.com", Name: "Ada"})
	}))
	mux.HandleFunc("PATCH "+accountPath, tn.api(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		tn.mu.Lock()
		tn.lastPatch = body
		tn.mu.Unlock()
		name, _ := body["name"].(string)
		writeJSON(w, http.StatusOK, saascannon.Account{ID: "acc_1", Email: "ada@example.com", Name: name})
	}))
	mux.HandleFunc("POST "+accountPortalPath, tn.api(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"url": tn.srv.URL + "/portal/session_1"})
	}))
	mux.HandleFunc("GET "+productsPath, tn.api(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []saascannon.Product{{
			ID:     "prod_1",
			Name:   "Pro",
			Prices: []saascannon.Price{{ID: "price_1", Amount: 1200, Currency: "eur", Interval: "month"}},
		}})
	}))
	mux.HandleFunc("GET "+subscriptionsPath, tn.api(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"code": "forbidden", "message": "missing scope shop:read"})
	}))
	mux.HandleFunc("POST "+checkoutPath, tn.api(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		tn.mu.Lock()
		tn.lastCheckout = body
		tn.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"url": tn.srv.URL + "/checkout/" + body["price_id"]})
	}))

	tn.srv = httptest.NewServer(mux)
	t.Cleanup(tn.srv.Close)
	return tn
}

func (tn *tenant) options(nav Navigator) Options {
	return Options{
		Domain:      tn.srv.URL,
		ClientID:    "spa_test",
		RedirectURI: "https://app.example.com/callback",
		Audience:    "https://api.example.com",
		JWKSURL:     tn.srv.URL + "/.well-known/jwks.json",
		HTTPClient:  tn.srv.Client(),
		Navigator:   nav,
		Clock:       tn.clock,
	}
}

func (tn *tenant) newClient(nav Navigator) *Client {
	tn.t.Helper()
	c, err := New(tn.options(nav))
	if err != nil {
		tn.t.Fatalf("New() error = %v", err)
	}
	return c
}

// accessToken signs an access token for subject with key.
func (tn *tenant) accessToken(key *rsa.PrivateKey, subject string, perms ...string) string {
	tn.t.Helper()
	now := tn.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{"https://api.example.com"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email:       subject + "@example.com",
		Name:        "User " + subject,
		Permissions: perms,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = testKID
	signed, err := tok.SignedString(key)
	if err != nil {
		tn.t.Fatal(err)
	}
	return signed
}

// token returns a stored token for subject that the client accepts.
func (tn *tenant) token(subject string, perms ...string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  tn.accessToken(tn.key, subject, perms...),
		TokenType:    "Bearer",
		RefreshToken: "refresh-" + subject,
		Expiry:       tn.clock.Now().Add(time.Hour),
	}
}

// authorize plays the hosted login page: it accepts the authorization
// URL the client navigated to and returns a code and the state.
func (tn *tenant) authorize(authURL, subject string) (code, state string) {
	tn.t.Helper()
	u, err := url.Parse(authURL)
	if err != nil {
		tn.t.Fatal(err)
	}
	q := u.Query()
	code = fmt.Sprintf("code-%d", len(tn.codes)+1)
	tn.mu.Lock()
	tn.codes[code] = grant{challenge: q.Get("code_challenge"), subject: subject}
	tn.mu.Unlock()
	return code, q.Get("state")
}

func (tn *tenant) refreshCount() int {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	return tn.refreshes
}

func (tn *tenant) serveToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if r.PostForm.Get("client_id") != "spa_test" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	var subject string
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		tn.mu.Lock()
		g, ok := tn.codes[r.PostForm.Get("code")]
		delete(tn.codes, r.PostForm.Get("code"))
		tn.mu.Unlock()
		sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))
		if !ok || base64.RawURLEncoding.EncodeToString(sum[:]) != g.challenge {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":             "invalid_grant",
				"error_description": "unknown code or verifier mismatch",
			})
			return
		}
		subject = g.subject

	case "refresh_token":
		tn.mu.Lock()
		tn.refreshes++
		gate := tn.refreshGate
		tn.mu.Unlock()
		if gate != nil {
			<-gate
		}
		rt := r.PostForm.Get("refresh_token")
		if len(rt) <= len("refresh-") {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		subject = rt[len("refresh-"):]

	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	tn.mu.Lock()
	expiresIn := tn.expiresIn
	tn.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  tn.accessToken(tn.key, subject, "billing:read"),
		"token_type":    "Bearer",
		"expires_in":    expiresIn,
		"refresh_token": "refresh-" + subject,
	})
}

func (tn *tenant) serveJWKS(w http.ResponseWriter, r *http.Request) {
	pub := tn.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKID,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

// api records the Authorization header and rejects requests without one.
func (tn *tenant) api(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		tn.mu.Lock()
		tn.authHeaders = append(tn.authHeaders, auth)
		tn.mu.Unlock()
		if auth == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "no token"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// navigations records the URLs a client navigated to.
type navigations struct {
	mu   sync.Mutex
	urls []string
}

func (n *navigations) Navigate(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
}

func (n *navigations) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.urls) == 0 {
		return ""
	}
	return n.urls[len(n.urls)-1]
}

// waitEvent registers for event and returns a channel that receives
// once per emission.
func waitEvent(c *Client, event saascannon.Event) <-chan struct{} {
	ch := make(chan struct{}, 8)
	c.On(event, func() { ch <- struct{}{} })
	return ch
}

func receive(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("event not emitted")
	}
}
