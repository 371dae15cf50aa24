package spa

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/saascannon/saascannon-vango/pkg/saascannon"
)

const (
	accountPath       = "/api/v1/account"
	accountPortalPath = "/api/v1/account/portal"
	productsPath      = "/api/v1/shop/products"
	subscriptionsPath = "/api/v1/shop/subscriptions"
	checkoutPath      = "/api/v1/shop/checkout"
)

type accountAPI struct {
	c *Client
}

func (a *accountAPI) Get(ctx context.Context) (*saascannon.Account, error) {
	var acc saascannon.Account
	if err := a.c.do(ctx, http.MethodGet, accountPath, nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (a *accountAPI) Update(ctx context.Context, update saascannon.AccountUpdate) (*saascannon.Account, error) {
	var acc saascannon.Account
	if err := a.c.do(ctx, http.MethodPatch, accountPath, update, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (a *accountAPI) OpenPortal(ctx context.Context) error {
	return a.c.redirectTo(ctx, accountPortalPath, map[string]string{
		"return_to": a.c.opts.PostLogoutRedirectURI,
	})
}

type shopAPI struct {
	c *Client
}

func (s *shopAPI) Products(ctx context.Context) ([]saascannon.Product, error) {
	var products []saascannon.Product
	if err := s.c.do(ctx, http.MethodGet, productsPath, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *shopAPI) Subscriptions(ctx context.Context) ([]saascannon.Subscription, error) {
	var subs []saascannon.Subscription
	if err := s.c.do(ctx, http.MethodGet, subscriptionsPath, nil, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *shopAPI) Checkout(ctx context.Context, priceID string) error {
	return s.c.redirectTo(ctx, checkoutPath, map[string]string{
		"price_id":  priceID,
		"return_to": s.c.opts.PostLogoutRedirectURI,
	})
}

// redirectTo posts body to path and navigates to the URL in the reply.
func (c *Client) redirectTo(ctx context.Context, path string, body any) error {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return err
	}
	if out.URL == "" {
		return &APIError{Status: http.StatusOK, Message: "response has no url"}
	}
	return c.navigate(out.URL)
}

// do sends an authenticated JSON request to the tenant API and decodes
// the reply into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (err error) {
	ctx, span := c.startSpan(ctx, "saascannon.API "+method+" "+path,
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	)
	defer func() { endSpan(span, err) }()

	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := oauth2.NewClient(c.httpContext(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(data, &payload)

	return &APIError{
		Status: resp.StatusCode,
		Code:   payload.Code,
		Message: cmp.Or(payload.Message, payload.Error,
			strings.TrimSpace(string(data)), http.StatusText(resp.StatusCode)),
	}
}
