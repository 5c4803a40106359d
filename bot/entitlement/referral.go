package entitlement

import "context"

// Attribute records that newID was referred by referrerID. It runs at
// most once per identity: a second attribution, or a self-referral, is a
// silent no-op rather than an error. The referrer's record is created
// with a zero baseline if it does not exist yet, so attribution never
// fails merely because the referrer has not talked to the bot directly.
func (s *Service) Attribute(ctx context.Context, newID, referrerID int64) error {
	if referrerID == 0 || referrerID == newID {
		return nil
	}

	var attributed bool
	err := s.locks.Do(newID, func() error {
		if _, _, err := s.repo.EnsureIdentity(ctx, newID, s.today(), s.trialExpiry()); err != nil {
			return wrapStore(err)
		}
		set, err := s.repo.SetReferredBy(ctx, newID, referrerID)
		if err != nil {
			return wrapStore(err)
		}
		attributed = set
		return nil
	})
	if err != nil {
		return err
	}
	if !attributed {
		return nil
	}

	// Crediting touches only the referrer's row through atomic store
	// primitives, so no lock is taken here; holding both identities'
	// locks at once could deadlock on mutual referrals.
	return s.creditReferral(ctx, referrerID)
}

// creditReferral increments the referrer's count and converts any newly
// completed milestones into premium days. Eligibility is derived from
// the count the store returned, not accumulated by the caller, which
// makes the grant idempotent under retries: re-running against an
// unchanged count grants nothing further.
func (s *Service) creditReferral(ctx context.Context, referrerID int64) error {
	// Zero baseline: an auto-created referrer gets no trial.
	if _, _, err := s.repo.EnsureIdentity(ctx, referrerID, s.today(), nil); err != nil {
		return wrapStore(err)
	}

	count, err := s.repo.AddReferral(ctx, referrerID)
	if err != nil {
		return wrapStore(err)
	}

	earned := count / s.cfg.ReferralsPerReward
	if earned == 0 {
		return nil
	}

	granted, err := s.repo.GrantRewardPacks(ctx, referrerID, earned, s.cfg.PremiumDaysPerReward)
	if err != nil {
		return wrapStore(err)
	}
	if granted && s.logger != nil {
		s.logger.Info("referral reward granted",
			"referrer", referrerID,
			"referral_count", count,
			"packs", earned,
		)
	}
	return nil
}
