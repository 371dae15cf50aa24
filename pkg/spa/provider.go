package spa

import (
	"github.com/saascannon/saascannon-vango/pkg/saascannon"
	"github.com/saascannon/saascannon-vango/pkg/vango"
)

// NewProvider is saascannon.Provider with New as the client factory.
// Inside a session, Options.Navigator and Options.Logger default to the
// session's.
//
// Example:
//
//	spa.NewProvider(saascannon.Props[spa.Options]{
//	    Config: spa.Options{
//	        Domain:      "acme.saascannon.app",
//	        ClientID:    "spa_123",
//	        RedirectURI: "https://app.example.com/callback",
//	    },
//	    Loading:  vdom.Text("Loading…"),
//	    Children: []any{App()},
//	})
func NewProvider(props saascannon.Props[Options]) vango.Component {
	if props.NewClient == nil {
		props.NewClient = newSessionClient
	}
	return saascannon.Provider(props)
}

func newSessionClient(opts Options) (saascannon.Client, error) {
	if ctx := vango.UseCtx(); ctx != nil {
		if opts.Navigator == nil {
			opts.Navigator = ctx
		}
		if opts.Logger == nil {
			opts.Logger = ctx.Logger()
		}
	}
	c, err := New(opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}
