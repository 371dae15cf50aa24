package saascannon

import (
	"context"
	"time"
)

// Event names a client lifecycle notification.
type Event string

const (
	// EventAuthStateLoaded fires when LoadAuthState finishes, whether or
	// not a user was found.
	EventAuthStateLoaded Event = "auth-state-loaded"

	// EventAuthStateChanged fires whenever the signed-in user changes
	// after the initial load.
	EventAuthStateChanged Event = "auth-state-changed"
)

// Client is the authentication client a Provider drives. The provider
// only calls On and LoadAuthState itself; every other member is handed
// to descendants through Value.
type Client interface {
	// On registers fn for event and returns a function that removes it.
	// fn may be called on any goroutine.
	On(event Event, fn func()) (off func())

	// LoadAuthState starts loading the stored authentication state and
	// returns immediately. Completion is reported only through
	// EventAuthStateLoaded.
	LoadAuthState(ctx context.Context)

	// User returns the signed-in user, or nil.
	User() *User

	LoginViaRedirect(ctx context.Context, opts ...RedirectOption) error
	SignupViaRedirect(ctx context.Context, opts ...RedirectOption) error
	LogoutViaRedirect(ctx context.Context, opts ...RedirectOption) error

	// GetAccessToken returns a valid access token, refreshing it when
	// needed.
	GetAccessToken(ctx context.Context) (string, error)

	// HasPermissions reports whether the user holds every permission.
	HasPermissions(perms ...string) bool

	AccountManagement() AccountManagement
	ShopManagement() ShopManagement
}

// User is the signed-in user as described by the access token.
type User struct {
	ID            string         `json:"sub"`
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified,omitempty"`
	Name          string         `json:"name,omitempty"`
	Picture       string         `json:"picture,omitempty"`
	Permissions   []string       `json:"permissions,omitempty"`
	Claims        map[string]any `json:"-"`
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return ""
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

// RedirectOptions are the settings a redirect flow accepts.
type RedirectOptions struct {
	// ReturnTo is where the user lands after the flow completes.
	ReturnTo string

	// LoginHint pre-fills the identifier on the hosted page.
	LoginHint string

	// Params are extra query parameters for the authorization request.
	Params map[string]string
}

// RedirectOption configures a redirect flow.
type RedirectOption func(*RedirectOptions)

// WithReturnTo sets the page to return to after the flow.
func WithReturnTo(url string) RedirectOption {
	return func(o *RedirectOptions) {
		o.ReturnTo = url
	}
}

// WithLoginHint pre-fills the user identifier.
func WithLoginHint(hint string) RedirectOption {
	return func(o *RedirectOptions) {
		o.LoginHint = hint
	}
}

// WithParam adds an extra authorization request parameter.
func WithParam(key, value string) RedirectOption {
	return func(o *RedirectOptions) {
		if o.Params == nil {
			o.Params = make(map[string]string)
		}
		o.Params[key] = value
	}
}

// ApplyRedirectOptions folds opts into a RedirectOptions value.
func ApplyRedirectOptions(opts ...RedirectOption) RedirectOptions {
	var o RedirectOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// AccountManagement manages the signed-in user's account.
type AccountManagement interface {
	Get(ctx context.Context) (*Account, error)
	Update(ctx context.Context, update AccountUpdate) (*Account, error)

	// OpenPortal sends the user to the hosted account portal.
	OpenPortal(ctx context.Context) error
}

// ShopManagement exposes the products and subscriptions of the shop.
type ShopManagement interface {
	Products(ctx context.Context) ([]Product, error)
	Subscriptions(ctx context.Context) ([]Subscription, error)

	// Checkout sends the user to the hosted checkout for priceID.
	Checkout(ctx context.Context, priceID string) error
}

// Account is the profile of the signed-in user.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountUpdate holds the account fields to change. Nil fields are left
// untouched.
type AccountUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Product is a purchasable product.
type Product struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Prices []Price `json:"prices"`
}

// Price is one price of a product.
type Price struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Interval string `json:"interval,omitempty"`
}

// Subscription is an active or past subscription of the user.
type Subscription struct {
	ID               string    `json:"id"`
	PriceID          string    `json:"price_id"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
}
