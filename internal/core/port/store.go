package port

import "currentcost2mqtt/internal/core/domain"

// SnapshotStore owns the persisted snapshot between polls.
type SnapshotStore interface {
	// Load returns nil, nil when no prior state exists (first run):
	// all accumulators start at zero, no timestamp.
	Load() (*domain.Snapshot, error)
	// Save is atomic from the caller's perspective: either the full
	// snapshot is durably written or the prior snapshot remains intact.
	Save(domain.Snapshot) error
	Close() error
}
