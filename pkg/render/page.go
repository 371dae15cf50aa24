package render

import (
	"fmt"
	"io"

	"github.com/saascannon/saascannon-vango/pkg/vdom"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is the already-resolved content placed inside the root element.
	Body *vdom.VNode

	// Title is the page title.
	Title string

	// Lang is the language attribute for the html element.
	// Defaults to "en" if not specified.
	Lang string

	// Meta contains additional meta tags for the page head.
	Meta []MetaTag

	// StyleSheets contains paths to external stylesheets.
	StyleSheets []string

	// SessionID identifies the live session the page belongs to. When
	// empty the page is static and no live script is injected.
	SessionID string

	// LivePath is the WebSocket endpoint of the live session.
	// Defaults to "/ws".
	LivePath string
}

// MetaTag represents a meta element in the document head.
type MetaTag struct {
	Name    string
	Content string
}

// RootID is the id of the element that wraps the page body. Live updates
// replace its contents.
const RootID = "saascannon-root"

// liveScript keeps the page in sync with its session. The server sends
// {"html": "..."} after every render pass and {"redirect": "..."} when a
// component navigates away. Clicks on elements carrying a data-hid are
// forwarded as {"hid": "...", "event": "click"}.
const liveScript = `(function(){` +
	`var d=document.currentScript.dataset,root=document.getElementById("` + RootID + `");` +
	`var ws=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+d.live+"?session="+encodeURIComponent(d.session));` +
	`ws.onmessage=function(e){var m=JSON.parse(e.data);if(m.redirect){location.assign(m.redirect);return}if(m.html!==undefined){root.innerHTML=m.html}};` +
	`root.addEventListener("click",function(e){var el=e.target.closest("[data-hid][data-on-click]");if(!el)return;e.preventDefault();ws.send(JSON.stringify({hid:el.dataset.hid,event:"click"}))});` +
	`})();`

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	_, err := r.renderPage(w, page, false)
	return err
}

// RenderLivePage renders a complete HTML document whose body carries
// hydration IDs, and returns the handlers collected from it.
func (r *Renderer) RenderLivePage(w io.Writer, page PageData) (Handlers, error) {
	return r.renderPage(w, page, true)
}

func (r *Renderer) renderPage(w io.Writer, page PageData, live bool) (Handlers, error) {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n", escapeAttr(lang)); err != nil {
		return nil, err
	}
	if err := r.renderHead(w, page); err != nil {
		return nil, err
	}

	if _, err := fmt.Fprintf(w, "<body>\n<div id=\"%s\">", RootID); err != nil {
		return nil, err
	}

	var handlers Handlers
	var err error
	if live {
		handlers, err = r.RenderInteractive(w, page.Body)
	} else {
		err = r.RenderToWriter(w, page.Body)
	}
	if err != nil {
		return nil, err
	}

	if _, err := io.WriteString(w, "</div>\n"); err != nil {
		return nil, err
	}
	if page.SessionID != "" {
		livePath := page.LivePath
		if livePath == "" {
			livePath = "/ws"
		}
		if _, err := fmt.Fprintf(w, "<script data-session=\"%s\" data-live=\"%s\">%s</script>\n",
			escapeAttr(page.SessionID), escapeAttr(livePath), liveScript); err != nil {
			return nil, err
		}
	}
	if _, err := io.WriteString(w, "</body>\n</html>\n"); err != nil {
		return nil, err
	}
	return handlers, nil
}

func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "<head>\n  <meta charset=\"utf-8\">\n"+
		"  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n"); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}
	for _, m := range page.Meta {
		if _, err := fmt.Fprintf(w, "  <meta name=\"%s\" content=\"%s\">\n",
			escapeAttr(m.Name), escapeAttr(m.Content)); err != nil {
			return err
		}
	}
	for _, href := range page.StyleSheets {
		if _, err := fmt.Fprintf(w, "  <link rel=\"stylesheet\" href=\"%s\">\n", escapeAttr(href)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</head>\n")
	return err
}
