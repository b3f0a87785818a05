package atelier

import "sync"

var _ CredentialStore = (*MemoryCredentialStore)(nil)
var _ FlagStore = (*MemoryFlagStore)(nil)

// MemoryCredentialStore keeps the token in process memory. It satisfies the
// CredentialStore contract for tests and ephemeral runs; nothing survives a
// restart.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	token string
	set   bool
}

// NewMemoryCredentialStore creates an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

// Token implements CredentialStore.
func (s *MemoryCredentialStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.set
}

// SetToken implements CredentialStore.
func (s *MemoryCredentialStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
}

// Clear implements CredentialStore.
func (s *MemoryCredentialStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
}

// MemoryFlagStore keeps toggle values in process memory.
type MemoryFlagStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryFlagStore creates an empty in-memory flag store.
func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{values: map[string]string{}}
}

// Get implements FlagStore.
func (s *MemoryFlagStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, found := s.values[name]
	return value, found
}

// Set implements FlagStore.
func (s *MemoryFlagStore) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}
