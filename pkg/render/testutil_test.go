package render

import (
	"regexp"
	"testing"
)

// attrValue returns the raw, still escaped, value of the first attr in
// html.
func attrValue(t *testing.T, html, attr string) string {
	t.Helper()
	m := regexp.MustCompile(regexp.QuoteMeta(attr) + `="([^"]*)"`).FindStringSubmatch(html)
	if m == nil {
		t.Fatalf("no %s attribute in %q", attr, html)
	}
	return m[1]
}
