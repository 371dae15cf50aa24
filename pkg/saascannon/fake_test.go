package saascannon

import (
	"context"
	"sync"
)

// fakeClient is a Client whose notifications are fired by the test.
type fakeClient struct {
	mu        sync.Mutex
	listeners map[Event]map[int]func()
	nextID    int
	loads     int
	loadCtx   context.Context
	user      *User
	perms     []string
	token     string
	logins    int
}

func newFakeClient() *fakeClient {
	return &fakeClient{listeners: make(map[Event]map[int]func()), token: "tok"}
}

func (f *fakeClient) On(event Event, fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listeners[event] == nil {
		f.listeners[event] = make(map[int]func())
	}
	id := f.nextID
	f.nextID++
	f.listeners[event][id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners[event], id)
	}
}

func (f *fakeClient) emit(event Event) {
	f.mu.Lock()
	fns := make([]func(), 0, len(f.listeners[event]))
	for _, fn := range f.listeners[event] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (f *fakeClient) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.listeners {
		n += len(l)
	}
	return n
}

func (f *fakeClient) LoadAuthState(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	f.loadCtx = ctx
}

func (f *fakeClient) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func (f *fakeClient) setUser(u *User) {
	f.mu.Lock()
	f.user = u
	f.mu.Unlock()
}

func (f *fakeClient) User() *User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

func (f *fakeClient) LoginViaRedirect(context.Context, ...RedirectOption) error {
	f.mu.Lock()
	f.logins++
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) SignupViaRedirect(context.Context, ...RedirectOption) error { return nil }
func (f *fakeClient) LogoutViaRedirect(context.Context, ...RedirectOption) error { return nil }

func (f *fakeClient) GetAccessToken(context.Context) (string, error) {
	return f.token, nil
}

func (f *fakeClient) HasPermissions(perms ...string) bool {
	for _, p := range perms {
		found := false
		for _, have := range f.perms {
			if have == p {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *fakeClient) AccountManagement() AccountManagement { return nil }
func (f *fakeClient) ShopManagement() ShopManagement       { return nil }
