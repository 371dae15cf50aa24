package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samber/lo"

	"github.com/saascannon/saascannon-vango/internal/config"
	"github.com/saascannon/saascannon-vango/pkg/saascannon"
	"github.com/saascannon/saascannon-vango/pkg/server"
	"github.com/saascannon/saascannon-vango/pkg/spa"
	"github.com/saascannon/saascannon-vango/pkg/vango"
	"github.com/saascannon/saascannon-vango/pkg/vdom"
)

// shopPermission lets a user browse plans.
const shopPermission = "shop:read"

// newApp returns the page served at "/". Every page load gets the token
// store of its browser, which is the one the login callback writes to.
func newApp(cfg *config.Config, metrics *saascannon.Metrics) server.AppFunc {
	return func(r *http.Request) server.Component {
		opts := cfg.SpaOptions()
		opts.Store = spa.StoreFromContext(r.Context())

		return spa.NewProvider(saascannon.Props[spa.Options]{
			Config:  opts,
			Loading: vdom.P(vdom.Class("loading"), vdom.Text("Loading…")),
			Children: []any{
				accountNav(),
				vdom.Main(
					vdom.H1(vdom.Text(cfg.Name)),
					plans(),
				),
			},
			Metrics: metrics,
		})
	}
}

// accountNav offers sign-in to visitors and account actions to users.
func accountNav() vango.Component {
	return vango.Func(func() *vdom.VNode {
		auth := saascannon.Use()
		if !auth.IsAuthenticated() {
			return vdom.Nav(vdom.Class("account"),
				vdom.Button(
					vdom.OnClick(func(ctx server.Ctx) { redirect(ctx, auth.LoginViaRedirect) }),
					vdom.Text("Log in"),
				),
				vdom.Button(
					vdom.OnClick(func(ctx server.Ctx) { redirect(ctx, auth.SignupViaRedirect) }),
					vdom.Text("Sign up"),
				),
			)
		}

		return vdom.Nav(vdom.Class("account"),
			vdom.Span(vdom.Text("Signed in as "+auth.User.DisplayName())),
			vdom.Button(
				vdom.OnClick(func(ctx server.Ctx) {
					background(ctx, "open account portal", auth.AccountManagement.OpenPortal)
				}),
				vdom.Text("Manage account"),
			),
			vdom.Button(
				vdom.OnClick(func(ctx server.Ctx) { redirect(ctx, auth.LogoutViaRedirect) }),
				vdom.Text("Log out"),
			),
		)
	})
}

// plans lists the shop's products to users allowed to see them.
func plans() vango.Component {
	return vango.Func(func() *vdom.VNode {
		auth := saascannon.Use()
		products := vango.NewSignal[[]saascannon.Product](nil)
		failed := vango.NewSignal("")

		allowed := auth.IsAuthenticated() && auth.HasPermissions(shopPermission)
		shop := auth.ShopManagement

		vango.OnMount(func() {
			ctx := vango.UseCtx()
			if !allowed || ctx == nil {
				return
			}
			go func() {
				list, err := shop.Products(ctx.StdContext())
				ctx.Dispatch(func() {
					if err != nil {
						ctx.Logger().Warn("list products failed", "error", err)
						failed.Set("Plans are unavailable right now.")
						return
					}
					products.Set(list)
				})
			}()
		})

		if !allowed {
			return nil
		}
		if msg := failed.Get(); msg != "" {
			return vdom.P(vdom.Class("error"), vdom.Text(msg))
		}

		items := lo.FlatMap(products.Get(), func(p saascannon.Product, _ int) []*vdom.VNode {
			return lo.Map(p.Prices, func(price saascannon.Price, _ int) *vdom.VNode {
				return vdom.Li(
					vdom.Key(price.ID),
					vdom.Text(p.Name+" "+formatPrice(price)),
					vdom.Button(
						vdom.OnClick(func(ctx server.Ctx) {
							background(ctx, "checkout", func(c context.Context) error {
								return shop.Checkout(c, price.ID)
							})
						}),
						vdom.Text("Subscribe"),
					),
				)
			})
		})
		return vdom.Ul(vdom.Class("plans"), items)
	})
}

func formatPrice(p saascannon.Price) string {
	s := fmt.Sprintf("%d.%02d %s", p.Amount/100, p.Amount%100, p.Currency)
	if p.Interval != "" {
		s += " / " + p.Interval
	}
	return s
}

// redirect starts a redirect flow that returns to the home page.
func redirect(ctx server.Ctx, flow func(context.Context, ...saascannon.RedirectOption) error) {
	if err := flow(ctx.StdContext(), saascannon.WithReturnTo("/")); err != nil {
		ctx.Logger().Error("redirect failed", "error", err)
	}
}

// background runs a call that talks to the tenant off the session loop.
func background(ctx server.Ctx, op string, fn func(context.Context) error) {
	go func() {
		if err := fn(ctx.StdContext()); err != nil {
			ctx.Logger().Warn(op+" failed", "error", err)
		}
	}()
}
