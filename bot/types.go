package bot

import "time"

// Identity is the per-user entitlement record. One row exists per Telegram
// user once they have contacted the bot (or been referred by someone who has).
type Identity struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time

	// QuotaDate is the calendar day (YYYY-MM-DD, reference timezone) the
	// current QuotaUsed count applies to. A stale date means the window
	// is about to be rolled.
	QuotaDate string
	QuotaUsed int

	// PremiumExpiry is nil for users who never held premium. The identity
	// is premium iff now is before the expiry.
	PremiumExpiry *time.Time

	ReferralCount      int
	RewardPacksGranted int

	// ReferredBy is set at most once, at first contact, and never to the
	// identity itself.
	ReferredBy *int64
}

// IsPremium reports whether the identity holds an active premium grant
// (a trial counts as premium) at the given instant.
func (i *Identity) IsPremium(now time.Time) bool {
	if i == nil || i.PremiumExpiry == nil {
		return false
	}
	return now.Before(*i.PremiumExpiry)
}
