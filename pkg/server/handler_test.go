package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/saascannon/saascannon-vango/pkg/vango"
	"github.com/saascannon/saascannon-vango/pkg/vdom"
)

func counterApp(*http.Request) Component {
	return vango.Func(func() *vdom.VNode {
		count := vango.NewSignal(0)
		return vdom.Button(vdom.OnClick(func() { vango.Inc(count) }), vdom.Textf("count %d", count.Get()))
	})
}

func newTestServer(t *testing.T, app AppFunc, reg *prometheus.Registry) (*httptest.Server, *Handler) {
	t.Helper()
	cfg := HandlerConfig{}
	if reg != nil {
		cfg.Gatherer = reg
		cfg.Session = &SessionConfig{Metrics: NewMetrics(WithRegistry(reg))}
	}
	h := NewHandler(app, cfg)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		h.Sessions().CloseAll()
	})
	return srv, h
}

var sessionAttr = regexp.MustCompile(`data-session="([^"]+)"`)

func getPage(t *testing.T, url string) (string, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	m := sessionAttr.FindStringSubmatch(string(body))
	if m == nil {
		t.Fatalf("page has no session id:\n%s", body)
	}
	return string(body), m[1]
}

func TestHandlerServesPageAndLiveUpdates(t *testing.T) {
	srv, h := newTestServer(t, counterApp, nil)

	body, id := getPage(t, srv.URL+"/")
	if !strings.Contains(body, "count 0") {
		t.Fatalf("page body missing content:\n%s", body)
	}
	if h.Sessions().Len() != 1 {
		t.Fatalf("sessions = %d, want 1", h.Sessions().Len())
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=" + id
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var u Update
	if err := conn.ReadJSON(&u); err != nil {
		t.Fatalf("read initial update: %v", err)
	}
	if !strings.Contains(u.HTML, "count 0") {
		t.Errorf("initial update = %q", u.HTML)
	}

	if err := conn.WriteJSON(clientEvent{HID: "h1", Event: "click"}); err != nil {
		t.Fatalf("write event: %v", err)
	}
	if err := conn.ReadJSON(&u); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if !strings.Contains(u.HTML, "count 1") {
		t.Errorf("update after click = %q", u.HTML)
	}
}

func TestHandlerUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t, counterApp, nil)

	resp, err := http.Get(srv.URL + "/ws?session=missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandlerRedirectsWhenMountNavigates(t *testing.T) {
	app := func(*http.Request) Component {
		return vango.Func(func() *vdom.VNode {
			ctx := vango.UseCtx()
			vango.OnMount(func() { ctx.Navigate("https://auth.example.com/login") })
			return vdom.Text("redirecting")
		})
	}
	srv, h := newTestServer(t, app, nil)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://auth.example.com/login" {
		t.Errorf("Location = %q", loc)
	}
	if h.Sessions().Len() != 0 {
		t.Error("redirected session should not be kept")
	}
}

func TestHandlerMountPanicIs500(t *testing.T) {
	app := func(*http.Request) Component {
		return vango.Func(func() *vdom.VNode { panic("render failed") })
	}
	srv, _ := newTestServer(t, app, nil)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestHandlerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv, _ := newTestServer(t, counterApp, reg)
	getPage(t, srv.URL+"/")

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{"saascannon_session_active 1", "saascannon_session_renders_total 1"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"https://example.com", true},
		{"https://evil.com", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://example.com/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := SameOriginCheck(r); got != tt.want {
			t.Errorf("SameOriginCheck(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
