package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

// ==================== Credential Store ====================

// credentialStore implements driven.CredentialStore.
type credentialStore struct {
	store *Store
}

var _ driven.CredentialStore = (*credentialStore)(nil)

const credentialColumns = `id, name, account_id, service, ciphertext, nonce, created_at, updated_at`

// Insert stores a new credential record.
func (s *credentialStore) Insert(ctx context.Context, rec domain.CredentialRecord) (int64, error) {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	res, err := s.store.writer.ExecContext(ctx, `
		INSERT INTO credentials (name, account_id, service, ciphertext, nonce, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.Name, rec.AccountID, string(rec.Service), rec.Ciphertext, rec.Nonce, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return 0, mapCredentialConstraint(err, "inserting credential")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading credential id: %w", err)
	}
	return id, nil
}

// Get retrieves a credential record by ID.
func (s *credentialStore) Get(ctx context.Context, id int64) (*domain.CredentialRecord, error) {
	row := s.store.reader.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = ?`, id)
	return scanCredential(row)
}

// GetByName retrieves a credential record by name.
func (s *credentialStore) GetByName(ctx context.Context, name string) (*domain.CredentialRecord, error) {
	row := s.store.reader.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE name = ?`, name)
	return scanCredential(row)
}

// GetByAccount retrieves the record for an account on a service.
func (s *credentialStore) GetByAccount(
	ctx context.Context,
	accountID string,
	service domain.ServiceType,
) (*domain.CredentialRecord, error) {
	row := s.store.reader.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE account_id = ? AND service = ?`,
		accountID, string(service))
	return scanCredential(row)
}

// ListByService returns all records for a service.
func (s *credentialStore) ListByService(ctx context.Context, service domain.ServiceType) ([]domain.CredentialRecord, error) {
	rows, err := s.store.reader.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE service = ? ORDER BY id`, string(service))
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	return collectCredentials(rows)
}

// List returns every record.
func (s *credentialStore) List(ctx context.Context) ([]domain.CredentialRecord, error) {
	rows, err := s.store.reader.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	return collectCredentials(rows)
}

// UpdateSecret replaces the sealed token of a record.
func (s *credentialStore) UpdateSecret(ctx context.Context, id int64, ciphertext, nonce []byte) error {
	res, err := s.store.writer.ExecContext(ctx, `
		UPDATE credentials SET ciphertext = ?, nonce = ?, updated_at = ? WHERE id = ?
	`, ciphertext, nonce, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating credential: %w", err)
	}
	return expectOneRow(res)
}

// Rename changes a record's name.
func (s *credentialStore) Rename(ctx context.Context, id int64, name string) error {
	res, err := s.store.writer.ExecContext(ctx, `
		UPDATE credentials SET name = ?, updated_at = ? WHERE id = ?
	`, name, time.Now().UTC(), id)
	if err != nil {
		return mapCredentialConstraint(err, "renaming credential")
	}
	return expectOneRow(res)
}

// Delete removes a record.
func (s *credentialStore) Delete(ctx context.Context, id int64) error {
	res, err := s.store.writer.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return expectOneRow(res)
}

func mapCredentialConstraint(err error, op string) error {
	switch {
	case isUniqueViolation(err, "credentials.name"):
		return domain.ErrDuplicateName
	case isUniqueViolation(err, "credentials.account_id"):
		return domain.ErrCredentialExists
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func scanCredential(row rowScanner) (*domain.CredentialRecord, error) {
	var rec domain.CredentialRecord
	var service string
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&rec.ID, &rec.Name, &rec.AccountID, &service,
		&rec.Ciphertext, &rec.Nonce, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning credential: %w", err)
	}
	rec.Service = domain.ServiceType(service)
	rec.CreatedAt = timeOrZero(createdAt)
	rec.UpdatedAt = timeOrZero(updatedAt)
	return &rec, nil
}

func collectCredentials(rows *sql.Rows) ([]domain.CredentialRecord, error) {
	defer rows.Close()

	var out []domain.CredentialRecord
	for rows.Next() {
		rec, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credentials: %w", err)
	}
	return out, nil
}

// ==================== Secret Store ====================

// secretStore implements driven.MasterSecretStore.
type secretStore struct {
	store *Store
}

var _ driven.MasterSecretStore = (*secretStore)(nil)

// GetSecret returns a stored secret.
func (s *secretStore) GetSecret(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.store.reader.QueryRowContext(ctx, `SELECT value FROM secrets WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading secret: %w", err)
	}
	return value, nil
}

// PutSecretIfAbsent stores value unless key is already set and returns the
// value that ends up stored.
func (s *secretStore) PutSecretIfAbsent(ctx context.Context, key string, value []byte) ([]byte, error) {
	_, err := s.store.writer.ExecContext(ctx, `
		INSERT INTO secrets (key, value, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, value, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("storing secret: %w", err)
	}

	// Read back through the writer so a concurrent insert is visible.
	var stored []byte
	if err := s.store.writer.QueryRowContext(ctx, `SELECT value FROM secrets WHERE key = ?`, key).Scan(&stored); err != nil {
		return nil, fmt.Errorf("reading secret: %w", err)
	}
	return stored, nil
}
