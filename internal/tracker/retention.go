package tracker

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Retention trims price history beyond the configured window.
type Retention struct {
	store Store
	days  int
	now   func() time.Time
}

func NewRetention(store Store, days int) *Retention {
	if days <= 0 {
		days = 30
	}
	return &Retention{store: store, days: days, now: time.Now}
}

// Prune deletes price points older than the retention window and
// reports how many were removed.
func (r *Retention) Prune() (int64, error) {
	cutoff := r.now().AddDate(0, 0, -r.days)
	deleted, err := r.store.PrunePointsBefore(cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logrus.WithFields(logrus.Fields{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Old price points pruned")
	}
	return deleted, nil
}
