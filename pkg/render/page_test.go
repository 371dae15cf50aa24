package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/saascannon/saascannon-vango/pkg/vdom"
)

func TestRenderPageStatic(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer(RendererConfig{}).RenderPage(&buf, PageData{
		Body:        vdom.H1(vdom.Text("Hello")),
		Title:       "A & B",
		Meta:        []MetaTag{{Name: "description", Content: "auth demo"}},
		StyleSheets: []string{"/app.css"},
	})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<html lang="en">`,
		"<title>A &amp; B</title>",
		`<meta name="description" content="auth demo">`,
		`<link rel="stylesheet" href="/app.css">`,
		`<div id="` + RootID + `"><h1>Hello</h1></div>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<script") {
		t.Error("static page should not include the live script")
	}
}

func TestRenderLivePage(t *testing.T) {
	var buf bytes.Buffer
	handlers, err := NewRenderer(RendererConfig{}).RenderLivePage(&buf, PageData{
		Body:      vdom.Button(vdom.OnClick(func() {}), vdom.Text("Log out")),
		SessionID: `abc"123`,
		Lang:      "de",
	})
	if err != nil {
		t.Fatalf("RenderLivePage() error = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `<html lang="de">`) {
		t.Error("lang not applied")
	}
	if got := attrValue(t, out, "data-session"); got != "abc&quot;123" {
		t.Errorf("data-session = %q", got)
	}
	if got := attrValue(t, out, "data-live"); got != "/ws" {
		t.Errorf("data-live = %q, want /ws", got)
	}
	if _, ok := handlers["h1_onclick"]; !ok {
		t.Errorf("handlers = %v, want h1_onclick", handlers)
	}
}
