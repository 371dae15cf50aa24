package spa

import (
	"errors"
	"net/http"
	"strings"
)

// ServeCallback completes the login whose code and state are in the query
// of r and redirects to the page the login started from, or to "/".
func (c *Client) ServeCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		c.logger.Warn("authorization failed", "error", e, "description", q.Get("error_description"))
		http.Error(w, "authorization failed: "+e, http.StatusUnauthorized)
		return
	}

	returnTo, err := c.HandleRedirectCallback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		c.logger.Warn("redirect callback failed", "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, ErrInvalidState) {
			status = http.StatusBadRequest
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	http.Redirect(w, r, localPath(returnTo), http.StatusFound)
}

// localPath keeps redirects on this site.
func localPath(p string) string {
	// Browsers read "/\host" as "//host".
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}
