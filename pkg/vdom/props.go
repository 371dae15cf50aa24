package vdom

import (
	"fmt"
	"strings"
)

// Attr is a single attribute. The "key" attribute sets VNode.Key instead
// of a prop. An Attr with an empty Key is ignored.
type Attr struct {
	Key   string
	Value any
}

func AttrOf(key string, value any) Attr { return Attr{key, value} }

func ID(id string) Attr { return Attr{"id", id} }
func Class(classes ...string) Attr { return Attr{"class", strings.Join(classes, " ")} }
func Data(key, value string) Attr { return Attr{"data-" + key, value} }
func Role(role string) Attr { return Attr{"role", role} }
func AriaBusy(busy bool) Attr { return Attr{"aria-busy", busy} }
func Href(url string) Attr { return Attr{"href", url} }
func Rel(rel string) Attr { return Attr{"rel", rel} }
func Name(name string) Attr { return Attr{"name", name} }
func Type(typ string) Attr { return Attr{"type", typ} }
func Value(value string) Attr { return Attr{"value", value} }
func Charset(charset string) Attr { return Attr{"charset", charset} }
func Disabled() Attr { return Attr{"disabled", true} }
func Hidden() Attr { return Attr{"hidden", true} }

// Key sets the reconciliation key of an element.
func Key(key any) Attr { return Attr{"key", fmt.Sprint(key)} }

// EventHandler binds Handler to the DOM event Event ("onclick"). The
// session accepts func() and func(Ctx) handlers.
type EventHandler struct {
	Event   string
	Handler any
}

func OnClick(handler any) EventHandler { return EventHandler{"onclick", handler} }
func OnSubmit(handler any) EventHandler { return EventHandler{"onsubmit", handler} }
