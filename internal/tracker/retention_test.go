package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsu-lab/mstrack/internal/models"
)

func TestPruneDeletesBeyondWindow(t *testing.T) {
	store := newFakeStore()
	store.points = []models.PricePoint{
		{ProductID: 1, SalePrice: 1000, RecordedAt: testTime.AddDate(0, 0, -31)},
		{ProductID: 1, SalePrice: 1100, RecordedAt: testTime.AddDate(0, 0, -29)},
		{ProductID: 2, SalePrice: 5000, RecordedAt: testTime},
	}

	retention := NewRetention(store, 30)
	retention.now = func() time.Time { return testTime }

	deleted, err := retention.Prune()
	require.NoError(t, err)

	assert.Equal(t, int64(1), deleted)
	require.Len(t, store.points, 2)
	for _, pt := range store.points {
		assert.False(t, pt.RecordedAt.Before(testTime.AddDate(0, 0, -30)))
	}
}

func TestPruneDefaultsWindow(t *testing.T) {
	retention := NewRetention(newFakeStore(), 0)
	assert.Equal(t, 30, retention.days)
}
