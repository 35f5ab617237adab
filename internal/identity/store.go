// Package identity assigns stable, human-readable labels to datapaths.
//
// Router labels are drawn from a monotonically increasing counter and
// persisted through a Store; they are never reused or purged, so a router
// that disappears and comes back regains its label. Switch labels are
// inferred from port names on every pass and never persisted.
package identity

import (
	"context"
	"errors"
	"sync"

	"sdnview/internal/domain"
)

// ErrLabelConflict is returned by a Store when a label or datapath is already taken
var ErrLabelConflict = errors.New("router label conflict")

// Store persists the router IdentityMap and its counter
type Store interface {
	// LoadRouterLabels returns every persisted label and the last counter value
	LoadRouterLabels(ctx context.Context) ([]domain.RouterLabel, int, error)
	// SaveRouterLabel persists a new label and advances the counter to label.Seq
	SaveRouterLabel(ctx context.Context, label domain.RouterLabel) error
}

// MemoryStore is a Store that lives for the lifetime of the process
type MemoryStore struct {
	mu     sync.Mutex
	labels []domain.RouterLabel
	seq    int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadRouterLabels implements Store
func (m *MemoryStore) LoadRouterLabels(ctx context.Context) ([]domain.RouterLabel, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.RouterLabel, len(m.labels))
	copy(out, m.labels)
	return out, m.seq, nil
}

// SaveRouterLabel implements Store
func (m *MemoryStore) SaveRouterLabel(ctx context.Context, label domain.RouterLabel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.labels {
		if l.DatapathID == label.DatapathID || l.Label == label.Label {
			return ErrLabelConflict
		}
	}
	m.labels = append(m.labels, label)
	if label.Seq > m.seq {
		m.seq = label.Seq
	}
	return nil
}
