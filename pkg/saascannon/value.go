package saascannon

import "context"

// Value is what a ready Provider publishes to its descendants: the
// client's current user, its redirect flows, token and permission
// helpers, and its management APIs.
//
// A Value is rebuilt every time the provider renders, so fields reflect
// the client at that render. Methods are bound to the provider's single
// client.
type Value struct {
	User *User

	LoginViaRedirect  func(ctx context.Context, opts ...RedirectOption) error
	SignupViaRedirect func(ctx context.Context, opts ...RedirectOption) error
	LogoutViaRedirect func(ctx context.Context, opts ...RedirectOption) error

	GetAccessToken func(ctx context.Context) (string, error)
	HasPermissions func(perms ...string) bool

	AccountManagement AccountManagement
	ShopManagement    ShopManagement
}

// IsAuthenticated reports whether a user is signed in.
func (v Value) IsAuthenticated() bool {
	return v.User != nil
}

func newValue(c Client) Value {
	return Value{
		User:              c.User(),
		LoginViaRedirect:  c.LoginViaRedirect,
		SignupViaRedirect: c.SignupViaRedirect,
		LogoutViaRedirect: c.LogoutViaRedirect,
		GetAccessToken:    c.GetAccessToken,
		HasPermissions:    c.HasPermissions,
		AccountManagement: c.AccountManagement(),
		ShopManagement:    c.ShopManagement(),
	}
}
