package saascannon

import (
	"errors"

	"github.com/saascannon/saascannon-vango/pkg/vango"
)

// ErrNoProvider is wrapped by the UsageError Use panics with.
var ErrNoProvider = errors.New("saascannon: no provider in scope")

// UsageError reports an accessor called outside a ready provider.
type UsageError struct {
	Op string
}

func (e *UsageError) Error() string {
	return "saascannon: " + e.Op + " must be used within a <SaascannonProvider>"
}

func (e *UsageError) Unwrap() error {
	return ErrNoProvider
}

var valueContext = vango.CreateContext(Value{})

// Use returns the value of the nearest enclosing Provider.
//
// It must be called while rendering a descendant of a ready Provider.
// Anywhere else it panics with a *UsageError naming the provider; this
// is a bug in the component tree, not a runtime condition.
//
// Example:
//
//	func Nav() vango.Component {
//	    return vango.Func(func() *vango.VNode {
//	        auth := saascannon.Use()
//	        if auth.User == nil {
//	            return Button(OnClick(login(auth)), Text("Log in"))
//	        }
//	        return Span(Text(auth.User.DisplayName()))
//	    })
//	}
func Use() Value {
	v, ok := Lookup()
	if !ok {
		panic(&UsageError{Op: "Use()"})
	}
	return v
}

// Lookup is Use without the panic. It reports false outside a ready
// Provider.
func Lookup() (Value, bool) {
	return valueContext.Lookup()
}
