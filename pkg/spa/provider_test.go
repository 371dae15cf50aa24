package spa

import (
	"context"
	"strings"
	"testing"

	"github.com/saascannon/saascannon-vango/pkg/saascannon"
	"github.com/saascannon/saascannon-vango/pkg/vango"
	"github.com/saascannon/saascannon-vango/pkg/vdom"
	"github.com/saascannon/saascannon-vango/pkg/vtest"
)

// accountBar offers login to visitors and logout to signed-in users.
func accountBar() vango.Component {
	return vango.Func(func() *vdom.VNode {
		auth := saascannon.Use()
		if !auth.IsAuthenticated() {
			return vdom.Button(
				vdom.OnClick(func() { auth.LoginViaRedirect(context.Background()) }),
				vdom.Text("Log in"),
			)
		}
		return vdom.Div(
			vdom.Text("signed in as "+auth.User.DisplayName()),
			vdom.Button(
				vdom.OnClick(func() { auth.LogoutViaRedirect(context.Background()) }),
				vdom.Text("Log out"),
			),
		)
	})
}

func providerProps(tn *tenant, store TokenStore) saascannon.Props[Options] {
	opts := tn.options(nil)
	opts.Store = store
	return saascannon.Props[Options]{
		Config:   opts,
		Loading:  "Loading…",
		Children: []any{accountBar()},
	}
}

func TestNewProviderLoginRedirect(t *testing.T) {
	tn := newTenant(t)
	h := vtest.Mount(t, NewProvider(providerProps(tn, NewMemoryStore())))

	h.ExpectContains("Loading…")
	h.WaitForHTML("Log in")

	h.Click("h1")
	redirect := h.Session.Redirect()
	if !strings.HasPrefix(redirect, tn.srv.URL+authorizePath+"?") {
		t.Errorf("Redirect() = %q, want the authorize endpoint", redirect)
	}
}

func TestNewProviderRestoresAndLogsOut(t *testing.T) {
	tn := newTenant(t)
	store := NewMemoryStore()
	store.SaveToken(tn.token("u1", "billing:read"))

	h := vtest.Mount(t, NewProvider(providerProps(tn, store)))
	h.WaitForHTML("signed in as User u1")

	h.Click("h1")
	h.WaitForHTML("Log in")
	if redirect := h.Session.Redirect(); !strings.HasPrefix(redirect, tn.srv.URL+logoutPath+"?") {
		t.Errorf("Redirect() = %q, want the logout endpoint", redirect)
	}
	if tok, _ := store.LoadToken(); tok != nil {
		t.Error("token kept after logout")
	}
}

func TestNewProviderInvalidOptionsKeepLoading(t *testing.T) {
	props := saascannon.Props[Options]{
		Config:   Options{ClientID: "spa_test"},
		Loading:  "Loading…",
		Children: []any{accountBar()},
	}
	h := vtest.Mount(t, NewProvider(props))
	h.Flush()

	if got := h.HTML(); got != "Loading…" {
		t.Errorf("HTML = %q, want placeholder", got)
	}
}
