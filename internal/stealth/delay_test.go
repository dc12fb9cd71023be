package stealth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHumanDelayProfiles(t *testing.T) {
	tests := []struct {
		profile DelayProfile
		min     time.Duration
		max     time.Duration
	}{
		{ProfileCautious, 2 * time.Second, 5 * time.Second},
		{ProfileNormal, 500 * time.Millisecond, 2 * time.Second},
		{ProfileAggressive, 200 * time.Millisecond, 800 * time.Millisecond},
		{DelayProfile("unknown"), 500 * time.Millisecond, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			d := NewHumanDelay(tt.profile)
			assert.Equal(t, tt.min, d.MinDelay)
			assert.Equal(t, tt.max, d.MaxDelay)
		})
	}
}

func TestRequestDelayStaysInRange(t *testing.T) {
	d := NewHumanDelay(ProfileNormal)
	for i := 0; i < 200; i++ {
		got := d.RequestDelay()
		assert.GreaterOrEqual(t, got, d.MinDelay)
		assert.Less(t, got, d.MaxDelay)
	}
}

func TestPageBrowseDelayIsLonger(t *testing.T) {
	d := NewHumanDelay(ProfileAggressive)
	for i := 0; i < 200; i++ {
		got := d.PageBrowseDelay()
		assert.GreaterOrEqual(t, got, d.MaxDelay)
		assert.Less(t, got, d.MaxDelay*2)
	}
}

func TestFixedDelayIsExact(t *testing.T) {
	d := NewFixedDelay(250 * time.Millisecond)
	for i := 0; i < 10; i++ {
		assert.Equal(t, 250*time.Millisecond, d.RequestDelay())
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	d := NewFixedDelay(10 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
