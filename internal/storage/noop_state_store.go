package storage

import (
	"context"
	"time"
)

// NoopStateStore is a state store that does nothing.
// Used for dry-run submissions where no state should persist.
type NoopStateStore struct {
	lastClaim time.Time
}

// NewNoopStateStore creates a new NoopStateStore reporting the given last
// claim time.
func NewNoopStateStore(lastClaim time.Time) *NoopStateStore {
	return &NoopStateStore{lastClaim: lastClaim}
}

// LastClaimTime returns the configured time.
func (s *NoopStateStore) LastClaimTime(_ context.Context) (time.Time, error) {
	return s.lastClaim, nil
}

// SetLastClaimTime does nothing.
func (s *NoopStateStore) SetLastClaimTime(_ context.Context, _ time.Time) error {
	return nil
}

// PendingCorrelationIDs always returns an empty list.
func (s *NoopStateStore) PendingCorrelationIDs(_ context.Context) ([]string, error) {
	return nil, nil
}

// SetPendingCorrelationIDs does nothing.
func (s *NoopStateStore) SetPendingCorrelationIDs(_ context.Context, _ []string) error {
	return nil
}

// AddPendingCorrelationID does nothing.
func (s *NoopStateStore) AddPendingCorrelationID(_ context.Context, _ string) error {
	return nil
}

// RemovePendingCorrelationID does nothing.
func (s *NoopStateStore) RemovePendingCorrelationID(_ context.Context, _ string) error {
	return nil
}
