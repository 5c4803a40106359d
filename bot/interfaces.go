package bot

import (
	"context"
	"time"
)

// Logger is the minimal logging abstraction used across modules.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Config provides typed access to configuration values.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetIntSlice(key string) []int
}

// EntitlementRepository defines the storage primitives the entitlement
// engine builds on. Every mutation is atomic with respect to concurrent
// callers touching the same identity row.
type EntitlementRepository interface {
	// EnsureIdentity creates the row on first contact with the current
	// quota day and the given trial expiry (which may be nil), and
	// reports whether it was created.
	EnsureIdentity(ctx context.Context, id int64, day string, trialExpiry *time.Time) (*Identity, bool, error)
	FindIdentity(ctx context.Context, id int64) (*Identity, error)

	// RollWindow resets quota_used to zero when the stored quota date
	// differs from day. Applying it twice for the same day is a no-op.
	RollWindow(ctx context.Context, id int64, day string) error

	// ConsumeQuota rolls the window if needed and increments quota_used
	// by one, but only while under limit. It returns the usage after the
	// call and whether the unit was granted.
	ConsumeQuota(ctx context.Context, id int64, day string, limit int) (used int, permitted bool, err error)

	// AddReferral atomically increments referral_count and returns the
	// new value.
	AddReferral(ctx context.Context, id int64) (int, error)

	// GrantRewardPacks raises reward_packs_granted to earnedPacks and
	// extends premium by days per newly granted pack, computed from
	// max(now, current expiry). It reports false when earnedPacks does
	// not exceed the stored value (already granted).
	GrantRewardPacks(ctx context.Context, id int64, earnedPacks, days int) (bool, error)

	// SetReferredBy sets referred_by exactly once; it reports false when
	// the field is already set or the referral is a self-referral.
	SetReferredBy(ctx context.Context, id, referrer int64) (bool, error)

	CountReferred(ctx context.Context, id int64) (int64, error)
	AllIdentityIDs(ctx context.Context) ([]int64, error)

	GetStat(ctx context.Context, key string) (int64, error)
	IncrementStat(ctx context.Context, key string) error
}

// WorkerPool limits concurrency for background tasks.
type WorkerPool interface {
	Submit(task func()) error
	Shutdown(ctx context.Context) error
	Size() int
}
