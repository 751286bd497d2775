package audit

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// Repository writes audit logs.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs an audit repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// Log writes an audit entry.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	entry = prepare(entry)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_logs (
	id, actor, role, action, resource_type, resource_id, property_id,
	metadata, payload_digest, ip, user_agent, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)`, entry.ID, entry.Actor, entry.Role, entry.Action, entry.ResourceType, entry.ResourceID, entry.PropertyID,
		entry.Metadata, entry.PayloadDigest, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}

// MemoryLogger keeps audit entries in memory.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLogger constructs an in-memory audit logger.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

// Log records an entry.
func (m *MemoryLogger) Log(ctx context.Context, entry Entry) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, prepare(entry))
	return nil
}

// Entries returns a copy of recorded entries.
func (m *MemoryLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
