package stealth

import (
	"context"
	"math/rand/v2"
	"time"
)

// DelayProfile names a pacing preset for outbound requests.
type DelayProfile string

const (
	ProfileCautious   DelayProfile = "cautious"
	ProfileNormal     DelayProfile = "normal"
	ProfileAggressive DelayProfile = "aggressive"
)

type delayRange struct {
	min, max time.Duration
}

var profileRanges = map[DelayProfile]delayRange{
	ProfileCautious:   {2 * time.Second, 5 * time.Second},
	ProfileNormal:     {500 * time.Millisecond, 2 * time.Second},
	ProfileAggressive: {200 * time.Millisecond, 800 * time.Millisecond},
}

// HumanDelay adds randomized jitter to mimic human browsing patterns.
type HumanDelay struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// NewHumanDelay creates a delay generator for the given profile.
// Unknown profiles fall back to normal.
func NewHumanDelay(profile DelayProfile) *HumanDelay {
	r, ok := profileRanges[profile]
	if !ok {
		r = profileRanges[ProfileNormal]
	}
	return &HumanDelay{MinDelay: r.min, MaxDelay: r.max}
}

// NewFixedDelay creates a delay generator that always waits exactly d.
// Used by the refresh loop, which paces products at a constant interval.
func NewFixedDelay(d time.Duration) *HumanDelay {
	return &HumanDelay{MinDelay: d, MaxDelay: d}
}

// Wait sleeps for a random duration within the configured range.
func (h *HumanDelay) Wait(ctx context.Context) error {
	return sleepCtx(ctx, h.RequestDelay())
}

// BrowseWait sleeps for the longer between-page duration; the category
// crawl uses it between listings.
func (h *HumanDelay) BrowseWait(ctx context.Context) error {
	return sleepCtx(ctx, h.PageBrowseDelay())
}

// RequestDelay returns a random delay for API/page requests.
func (h *HumanDelay) RequestDelay() time.Duration {
	return h.randomBetween(h.MinDelay, h.MaxDelay)
}

// PageBrowseDelay returns a longer delay for between-page navigation.
func (h *HumanDelay) PageBrowseDelay() time.Duration {
	return h.randomBetween(h.MaxDelay, h.MaxDelay*2)
}

func (h *HumanDelay) randomBetween(lo, hi time.Duration) time.Duration {
	if lo >= hi {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
