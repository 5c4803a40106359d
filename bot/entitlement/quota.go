package entitlement

import "context"

// State is the quota gate's view of an identity.
type State string

const (
	StateWithinLimit State = "within_limit"
	StateAtLimit     State = "at_limit"
	StateUnlimited   State = "unlimited"
)

// Decision is the outcome of a quota check. Remaining is meaningless for
// unlimited identities.
type Decision struct {
	Permitted bool
	State     State
	Remaining int
}

// Check evaluates the quota gate without consuming a unit. The quota
// window is rolled to today as a side effect, but quota_used is never
// incremented. Callers use it to reject exhausted users before spending
// network work on a resolution.
func (s *Service) Check(ctx context.Context, id int64) (Decision, error) {
	var decision Decision
	err := s.locks.Do(id, func() error {
		day := s.today()
		identity, _, err := s.repo.EnsureIdentity(ctx, id, day, s.trialExpiry())
		if err != nil {
			return wrapStore(err)
		}

		if identity.IsPremium(s.now()) {
			decision = Decision{Permitted: true, State: StateUnlimited}
			return nil
		}

		if err := s.repo.RollWindow(ctx, id, day); err != nil {
			return wrapStore(err)
		}
		identity, err = s.repo.FindIdentity(ctx, id)
		if err != nil {
			return wrapStore(err)
		}

		if identity.QuotaUsed < s.cfg.FreeDailyLimit {
			decision = Decision{
				Permitted: true,
				State:     StateWithinLimit,
				Remaining: s.cfg.FreeDailyLimit - identity.QuotaUsed,
			}
		} else {
			decision = Decision{Permitted: false, State: StateAtLimit}
		}
		return nil
	})
	return decision, err
}

// CheckAndConsume evaluates the quota gate and, for a permitted free
// identity, consumes one unit atomically with the window roll and limit
// check. Premium identities are unlimited and never mutated. Remaining
// reflects the state after the consumed unit.
func (s *Service) CheckAndConsume(ctx context.Context, id int64) (Decision, error) {
	var decision Decision
	err := s.locks.Do(id, func() error {
		day := s.today()
		identity, _, err := s.repo.EnsureIdentity(ctx, id, day, s.trialExpiry())
		if err != nil {
			return wrapStore(err)
		}

		if identity.IsPremium(s.now()) {
			decision = Decision{Permitted: true, State: StateUnlimited}
			return nil
		}

		used, permitted, err := s.repo.ConsumeQuota(ctx, id, day, s.cfg.FreeDailyLimit)
		if err != nil {
			return wrapStore(err)
		}

		remaining := s.cfg.FreeDailyLimit - used
		if remaining < 0 {
			remaining = 0
		}
		if permitted {
			decision = Decision{Permitted: true, State: StateWithinLimit, Remaining: remaining}
		} else {
			decision = Decision{Permitted: false, State: StateAtLimit, Remaining: remaining}
		}
		return nil
	})
	return decision, err
}
