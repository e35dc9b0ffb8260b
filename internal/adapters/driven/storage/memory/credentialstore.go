package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

// Ensure CredentialStore implements the interface.
var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore is an in-memory implementation of driven.CredentialStore.
type CredentialStore struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]domain.CredentialRecord
}

// NewCredentialStore creates a new in-memory credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		records: make(map[int64]domain.CredentialRecord),
	}
}

// Insert stores a new record.
func (s *CredentialStore) Insert(_ context.Context, rec domain.CredentialRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Name == rec.Name {
			return 0, domain.ErrDuplicateName
		}
		if r.AccountID == rec.AccountID && r.Service == rec.Service {
			return 0, domain.ErrCredentialExists
		}
	}

	s.nextID++
	now := time.Now()
	rec.ID = s.nextID
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Ciphertext = bytes.Clone(rec.Ciphertext)
	rec.Nonce = bytes.Clone(rec.Nonce)
	s.records[rec.ID] = rec
	return rec.ID, nil
}

// Get retrieves a record by ID.
func (s *CredentialStore) Get(_ context.Context, id int64) (*domain.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// GetByName retrieves a record by name.
func (s *CredentialStore) GetByName(_ context.Context, name string) (*domain.CredentialRecord, error) {
	return s.find(func(r domain.CredentialRecord) bool { return r.Name == name })
}

// GetByAccount retrieves the record for an account on a service.
func (s *CredentialStore) GetByAccount(
	_ context.Context,
	accountID string,
	service domain.ServiceType,
) (*domain.CredentialRecord, error) {
	return s.find(func(r domain.CredentialRecord) bool {
		return r.AccountID == accountID && r.Service == service
	})
}

// ListByService returns records for a service ordered by ID.
func (s *CredentialStore) ListByService(_ context.Context, service domain.ServiceType) ([]domain.CredentialRecord, error) {
	return s.filter(func(r domain.CredentialRecord) bool { return r.Service == service }), nil
}

// List returns all records ordered by ID.
func (s *CredentialStore) List(_ context.Context) ([]domain.CredentialRecord, error) {
	return s.filter(func(domain.CredentialRecord) bool { return true }), nil
}

// UpdateSecret replaces ciphertext and nonce.
func (s *CredentialStore) UpdateSecret(_ context.Context, id int64, ciphertext, nonce []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Ciphertext = bytes.Clone(ciphertext)
	rec.Nonce = bytes.Clone(nonce)
	rec.UpdatedAt = time.Now()
	s.records[id] = rec
	return nil
}

// Rename changes a record's name.
func (s *CredentialStore) Rename(_ context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	for otherID, r := range s.records {
		if otherID != id && r.Name == name {
			return domain.ErrDuplicateName
		}
	}
	rec.Name = name
	rec.UpdatedAt = time.Now()
	s.records[id] = rec
	return nil
}

// Delete removes a record.
func (s *CredentialStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *CredentialStore) find(match func(domain.CredentialRecord) bool) (*domain.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if match(r) {
			return cloneRecord(r), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *CredentialStore) filter(match func(domain.CredentialRecord) bool) []domain.CredentialRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.CredentialRecord
	for _, r := range s.records {
		if match(r) {
			out = append(out, *cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneRecord(r domain.CredentialRecord) *domain.CredentialRecord {
	r.Ciphertext = bytes.Clone(r.Ciphertext)
	r.Nonce = bytes.Clone(r.Nonce)
	return &r
}

// Ensure SecretStore implements the interface.
var _ driven.MasterSecretStore = (*SecretStore)(nil)

// SecretStore is an in-memory implementation of driven.MasterSecretStore.
type SecretStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewSecretStore creates a new in-memory secret store.
func NewSecretStore() *SecretStore {
	return &SecretStore{values: make(map[string][]byte)}
}

// GetSecret returns a stored secret.
func (s *SecretStore) GetSecret(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return bytes.Clone(v), nil
}

// PutSecretIfAbsent stores value unless key exists and returns what is stored.
func (s *SecretStore) PutSecretIfAbsent(_ context.Context, key string, value []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return bytes.Clone(v), nil
	}
	s.values[key] = bytes.Clone(value)
	return bytes.Clone(value), nil
}
