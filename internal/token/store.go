package token

import (
	"context"
	"sync"
	"time"

	"github.com/campusport/portalgate/internal/identity"
)

// Storage keys, matching the layout the portal front-end used in browser
// storage: one key for the raw bearer token, one for the serialized
// identity. The two are always written and removed together.
const (
	KeyAuthToken = "authToken"
	KeyUserData  = "userData"
)

// Store persists the current session credential and identity. Exactly one
// session is active per store at a time; Save overwrites any prior values.
//
// Load never fails: absent or malformed persisted data resolves to an
// empty credential and nil identity so a corrupt store can never block
// startup. A credential whose embedded expiry has passed reads as absent,
// and a credential that carries identity claims can stand in for a lost
// userData record. Clear is idempotent.
type Store interface {
	Save(ctx context.Context, credential string, ident identity.Identity) error
	Load(ctx context.Context) (credential string, ident *identity.Identity)
	Clear(ctx context.Context) error
}

// decodeUserData turns a persisted session into a credential and identity,
// treating malformed data as absent. When the userData record is missing
// or corrupt the identity is recovered from the credential's claims via
// ParseIdentity, so losing one of the two keys does not lose the session.
func decodeUserData(credential string, raw []byte) (string, *identity.Identity) {
	if credential == "" {
		return "", nil
	}
	// An expired credential would only be replayed until the backend
	// rejects it; treat the session as already over
	if expiry, err := ExpiresAt(credential); err == nil && !expiry.IsZero() && expiry.Before(time.Now()) {
		return "", nil
	}
	if len(raw) > 0 {
		if ident, err := identity.Unmarshal(raw); err == nil {
			return credential, ident
		}
	}
	if ident, err := ParseIdentity(credential); err == nil {
		return credential, ident
	}
	return "", nil
}

// MemoryStore keeps the session in process memory. Used in tests and as
// the ephemeral driver.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Save persists both keys, overwriting any prior session
func (s *MemoryStore) Save(ctx context.Context, credential string, ident identity.Identity) error {
	data, err := ident.Marshal()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[KeyAuthToken] = credential
	s.values[KeyUserData] = string(data)
	return nil
}

// Load returns the persisted session, or ("", nil) if absent or malformed
func (s *MemoryStore) Load(ctx context.Context) (string, *identity.Identity) {
	s.mu.RLock()
	credential := s.values[KeyAuthToken]
	raw := s.values[KeyUserData]
	s.mu.RUnlock()
	return decodeUserData(credential, []byte(raw))
}

// Clear removes both keys. Safe to call repeatedly.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, KeyAuthToken)
	delete(s.values, KeyUserData)
	return nil
}

// Corrupt overwrites the persisted identity with unparseable data. Test
// hook for the malformed-storage startup path.
func (s *MemoryStore) Corrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[KeyUserData] = "{not json"
}
