package spa

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultBrowserCookie names the cookie BrowserStores keys stores by.
const DefaultBrowserCookie = "saascannon_browser"

// BrowserStores keeps one MemoryStore per browser, identified by a
// cookie. Stores unused for longer than TTL are dropped by Sweep.
type BrowserStores struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Clock      clockwork.Clock

	mu     sync.Mutex
	stores map[string]*browserStore
}

type browserStore struct {
	store    *MemoryStore
	lastSeen time.Time
}

// NewBrowserStores creates an empty registry with a 24 hour TTL.
func NewBrowserStores() *BrowserStores {
	return &BrowserStores{
		CookieName: DefaultBrowserCookie,
		TTL:        24 * time.Hour,
		Clock:      clockwork.NewRealClock(),
		stores:     make(map[string]*browserStore),
	}
}

type storeKey struct{}

// Middleware makes sure every request carries the browser cookie and
// attaches that browser's store to the request context.
func (b *BrowserStores) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(b.CookieName); err == nil && c.Value != "" {
			id = c.Value
		} else {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     b.CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   b.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), storeKey{}, b.Get(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Get returns the store of browser id, creating it when needed.
func (b *BrowserStores) Get(id string) *MemoryStore {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.stores[id]
	if !ok {
		entry = &browserStore{store: NewMemoryStore()}
		b.stores[id] = entry
	}
	entry.lastSeen = b.Clock.Now()
	return entry.store
}

// Sweep drops stores unused for longer than TTL and returns how many.
func (b *BrowserStores) Sweep() int {
	cutoff := b.Clock.Now().Add(-b.TTL)

	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for id, entry := range b.stores {
		if entry.lastSeen.Before(cutoff) {
			delete(b.stores, id)
			n++
		}
	}
	return n
}

// Len returns the number of stores.
func (b *BrowserStores) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.stores)
}

// StoreFromContext returns the store Middleware attached, or nil.
func StoreFromContext(ctx context.Context) TokenStore {
	if s, ok := ctx.Value(storeKey{}).(*MemoryStore); ok {
		return s
	}
	return nil
}
