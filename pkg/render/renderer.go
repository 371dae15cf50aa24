package render

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/saascannon/saascannon-vango/pkg/vdom"
)

// RendererConfig configures a Renderer.
type RendererConfig struct {
	// Pretty indents nested block elements. Development only.
	Pretty bool

	// Indent is one level of indentation in pretty mode. Default: two spaces.
	Indent string
}

// Renderer writes VNode trees as HTML. It keeps no state between renders
// and is safe for concurrent use.
type Renderer struct {
	pretty bool
	indent string
}

func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{pretty: config.Pretty, indent: config.Indent}
}

// Handlers maps "<hid>_<prop>", for example "h3_onclick", to the handler
// found on the element with that hydration ID.
type Handlers map[string]any

func (r *Renderer) RenderToString(node *vdom.VNode) (string, error) {
	var buf bytes.Buffer
	err := r.RenderToWriter(&buf, node)
	return buf.String(), err
}

// RenderToWriter streams node to w.
func (r *Renderer) RenderToWriter(w io.Writer, node *vdom.VNode) error {
	p := &pass{r: r, w: w}
	p.node(node, 0)
	return p.err
}

// RenderInteractive renders like RenderToWriter and gives each element
// with handlers a data-hid attribute. IDs follow document order, so
// renders of the same tree agree on them.
func (r *Renderer) RenderInteractive(w io.Writer, node *vdom.VNode) (Handlers, error) {
	p := &pass{r: r, w: w, handlers: Handlers{}}
	p.node(node, 0)
	if p.err != nil {
		return nil, p.err
	}
	return p.handlers, nil
}

// pass is one render. The first write error sticks and stops output.
type pass struct {
	r   *Renderer
	w   io.Writer
	err error

	// handlers is nil when no hydration IDs are assigned.
	handlers Handlers
	lastHID  int
}

func (p *pass) write(parts ...string) {
	for _, s := range parts {
		if p.err != nil {
			return
		}
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *pass) newline() {
	if p.r.pretty {
		p.write("\n")
	}
}

func (p *pass) pad(depth int) {
	if p.r.pretty && depth > 0 {
		p.write(strings.Repeat(p.r.indent, depth))
	}
}

func (p *pass) node(n *vdom.VNode, depth int) {
	if n == nil || p.err != nil {
		return
	}
	switch n.Kind {
	case vdom.KindElement:
		p.element(n, depth)
	case vdom.KindText:
		p.write(escapeHTML(n.Text))
	case vdom.KindRaw:
		p.write(n.Text)
	case vdom.KindFragment:
		for _, c := range n.Children {
			p.node(c, depth)
		}
	case vdom.KindComponent:
		// Sessions resolve components first; a stray one renders without
		// state.
		if n.Comp != nil {
			p.node(n.Comp.Render(), depth)
		}
	default:
		p.err = fmt.Errorf("render: unknown node kind: %d", n.Kind)
	}
}

func (p *pass) element(n *vdom.VNode, depth int) {
	p.pad(depth)
	p.write("<", n.Tag)
	p.attributes(n.Props)
	if p.handlers != nil && n.IsInteractive() {
		p.lastHID++
		hid := "h" + strconv.Itoa(p.lastHID)
		p.write(` data-hid="`, hid, `"`)
		for key, v := range n.Props {
			if isHandler(key, v) {
				p.handlers[hid+"_"+key] = v
			}
		}
	}
	p.write(">")

	if vdom.IsVoidElement(n.Tag) {
		p.newline()
		return
	}
	block := len(n.Children) > 0 && !isInlineElement(n.Tag)
	if block {
		p.newline()
	}
	for _, c := range n.Children {
		p.node(c, depth+1)
	}
	if block {
		p.pad(depth)
	}
	p.write("</", n.Tag, ">")
	p.newline()
}

// attributes writes props sorted by name, then one data-on-<event> marker
// per handler. Handlers themselves never reach the page.
func (p *pass) attributes(props vdom.Props) {
	var events []string
	for _, key := range slices.Sorted(maps.Keys(props)) {
		v := props[key]
		switch {
		case key == "key" || strings.HasPrefix(key, "_"):
			continue
		case isHandler(key, v):
			events = append(events, strings.ToLower(key[2:]))
			continue
		case key == "className":
			key = "class"
		case key == "htmlFor":
			key = "for"
		}

		if b, ok := v.(bool); ok && isBooleanAttr(key) {
			if b {
				p.write(" ", key)
			}
			continue
		}
		if s := attrString(v); s != "" {
			p.write(" ", key, `="`, escapeAttr(s), `"`)
		}
	}
	for _, e := range events {
		p.write(" data-on-", e, `="true"`)
	}
}

// isHandler reports whether the prop key holds a function.
func isHandler(key string, v any) bool {
	if !strings.HasPrefix(key, "on") || v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}

func attrString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}
