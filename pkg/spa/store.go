package spa

import (
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Transaction is a login in progress, keyed by its state parameter.
type Transaction struct {
	Verifier  string
	ReturnTo  string
	CreatedAt time.Time
}

// TokenStore persists the token of one browser and its pending logins.
// Implementations must be safe for concurrent use.
type TokenStore interface {
	// LoadToken returns the stored token, or nil.
	LoadToken() (*oauth2.Token, error)
	SaveToken(tok *oauth2.Token) error
	ClearToken() error

	SaveTransaction(state string, tx Transaction) error

	// TakeTransaction returns and removes the transaction for state.
	TakeTransaction(state string) (Transaction, bool)
}

// MemoryStore is an in-memory TokenStore.
type MemoryStore struct {
	mu    sync.Mutex
	token *oauth2.Token
	txs   map[string]Transaction
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[string]Transaction)}
}

func (s *MemoryStore) LoadToken() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) SaveToken(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
	return nil
}

func (s *MemoryStore) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	return nil
}

func (s *MemoryStore) SaveTransaction(state string, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[state] = tx
	return nil
}

func (s *MemoryStore) TakeTransaction(state string) (Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[state]
	delete(s.txs, state)
	return tx, ok
}

// KV is the key-value surface of a session. *server.Session implements it.
type KV interface {
	Get(key string) any
	Set(key string, value any)
	Delete(key string)
}

const (
	tokenKey       = "saascannon.token"
	transactionKey = "saascannon.tx."
)

// SessionStore keeps tokens in session data.
type SessionStore struct {
	kv KV
}

// NewSessionStore creates a TokenStore backed by kv.
func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv}
}

func (s *SessionStore) LoadToken() (*oauth2.Token, error) {
	tok, _ := s.kv.Get(tokenKey).(*oauth2.Token)
	return tok, nil
}

func (s *SessionStore) SaveToken(tok *oauth2.Token) error {
	s.kv.Set(tokenKey, tok)
	return nil
}

func (s *SessionStore) ClearToken() error {
	s.kv.Delete(tokenKey)
	return nil
}

func (s *SessionStore) SaveTransaction(state string, tx Transaction) error {
	s.kv.Set(transactionKey+state, tx)
	return nil
}

// TakeTransaction is not atomic; a session is used by one browser.
func (s *SessionStore) TakeTransaction(state string) (Transaction, bool) {
	tx, ok := s.kv.Get(transactionKey + state).(Transaction)
	if ok {
		s.kv.Delete(transactionKey + state)
	}
	return tx, ok
}
