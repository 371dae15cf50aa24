// Package spa is a Saascannon client for server-rendered single-page
// apps.
//
// The client signs users in with the OAuth 2.0 authorization code flow
// and PKCE against the tenant domain. Tokens live in a TokenStore, so a
// store keyed by browser lets the callback route and later page loads
// share one login:
//
//	store := spa.StoreFromContext(r.Context()) // set by BrowserStores.Middleware
//	client, _ := spa.New(spa.Options{Domain: d, ClientID: id, Store: store})
//	client.ServeCallback(w, r)
//
// Access tokens are verified against JWKSURL when it is set. The user
// and permissions come from the access token claims.
//
// Events are delivered on the goroutine that causes them; LoadAuthState
// always reports from its own goroutine.
package spa
