package store

import "github.com/minsu-lab/mstrack/internal/tracker"

// TrackerStore adapts Store to the tracker's transactional interface:
// the closure receives the transaction-scoped store instead of the
// concrete type.
type TrackerStore struct {
	*Store
}

var _ tracker.Store = TrackerStore{}

func (t TrackerStore) WithTx(fn func(tx tracker.Store) error) error {
	return t.Store.WithTx(func(tx *Store) error {
		return fn(TrackerStore{tx})
	})
}
