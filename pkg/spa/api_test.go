package spa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/saascannon/saascannon-vango/pkg/saascannon"
)

func signedIn(t *testing.T, tn *tenant, nav Navigator) *Client {
	t.Helper()
	c := tn.newClient(nav)
	if err := c.adopt(tn.token("u1")); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestAccountManagement(t *testing.T) {
	tn := newTenant(t)
	nav := &navigations{}
	c := signedIn(t, tn, nav)
	ctx := context.Background()
	account := c.AccountManagement()

	acc, err := account.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if acc.ID != "acc_1" || acc.Name != "Ada" {
		t.Errorf("Get() = %+v", acc)
	}

	name := "Ada Lovelace"
	acc, err = account.Update(ctx, saascannon.AccountUpdate{Name: &name})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if acc.Name != name {
		t.Errorf("Update() = %+v", acc)
	}
	tn.mu.Lock()
	patch := tn.lastPatch
	tn.mu.Unlock()
	if patch["name"] != name {
		t.Errorf("PATCH body = %v", patch)
	}
	if _, ok := patch["email"]; ok {
		t.Errorf("PATCH body carries unset email: %v", patch)
	}

	if err := account.OpenPortal(ctx); err != nil {
		t.Fatalf("OpenPortal() error = %v", err)
	}
	if got := nav.last(); got != tn.srv.URL+"/portal/session_1" {
		t.Errorf("navigated to %q", got)
	}

	token, _ := c.GetAccessToken(ctx)
	tn.mu.Lock()
	defer tn.mu.Unlock()
	for _, h := range tn.authHeaders {
		if h != "Bearer "+token {
			t.Errorf("Authorization = %q", h)
		}
	}
}

func TestShopManagement(t *testing.T) {
	tn := newTenant(t)
	nav := &navigations{}
	c := signedIn(t, tn, nav)
	ctx := context.Background()
	shop := c.ShopManagement()

	products, err := shop.Products(ctx)
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(products) != 1 || len(products[0].Prices) != 1 || products[0].Prices[0].Amount != 1200 {
		t.Errorf("Products() = %+v", products)
	}

	_, err = shop.Subscriptions(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Subscriptions() error = %v, want *APIError", err)
	}
	if apiErr.Status != 403 || apiErr.Code != "forbidden" || !strings.Contains(apiErr.Message, "shop:read") {
		t.Errorf("APIError = %+v", apiErr)
	}

	if err := shop.Checkout(ctx, "price_1"); err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if got := nav.last(); got != tn.srv.URL+"/checkout/price_1" {
		t.Errorf("navigated to %q", got)
	}
	tn.mu.Lock()
	body := tn.lastCheckout
	tn.mu.Unlock()
	if body["price_id"] != "price_1" || body["return_to"] != "https://app.example.com" {
		t.Errorf("checkout body = %v", body)
	}
}

func TestAPIRequiresUser(t *testing.T) {
	tn := newTenant(t)
	c := tn.newClient(nil)

	if _, err := c.AccountManagement().Get(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Get() error = %v, want ErrNotAuthenticated", err)
	}
	tn.mu.Lock()
	defer tn.mu.Unlock()
	if len(tn.authHeaders) != 0 {
		t.Error("request sent without a user")
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Status: 403, Code: "forbidden", Message: "nope"}
	if got := err.Error(); got != "spa: api error 403 (forbidden): nope" {
		t.Errorf("Error() = %q", got)
	}
	err = &APIError{Status: 500, Message: "boom"}
	if got := err.Error(); got != "spa: api error 500: boom" {
		t.Errorf("Error() = %q", got)
	}
}
