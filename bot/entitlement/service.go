package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adsskipbot/AdsSkipBot-Go/bot"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/worker"
)

// ErrStore is returned when the backing store cannot be reached or a
// mutation fails. It is never masked: quota and referral correctness
// depend on the store, so callers must report a transient failure rather
// than guess.
var ErrStore = errors.New("entitlement: store unavailable")

// Settings holds the entitlement policy knobs.
type Settings struct {
	FreeDailyLimit       int
	ReferralsPerReward   int
	PremiumDaysPerReward int
	// TrialDays of premium are granted once, at first contact. Zero
	// disables the trial.
	TrialDays int
	// Location anchors the "today" used for quota windows.
	Location *time.Location
}

// Service implements the quota gate and referral ledger on top of an
// EntitlementRepository. Per-identity sequences are serialized with keyed
// locks; the repository's guarded updates keep racing writers safe even
// across processes.
type Service struct {
	repo   bot.EntitlementRepository
	cfg    Settings
	locks  *worker.KeyedLocks
	now    func() time.Time
	logger bot.Logger
}

// NewService creates an entitlement service.
func NewService(repo bot.EntitlementRepository, cfg Settings, logger bot.Logger) *Service {
	if cfg.FreeDailyLimit <= 0 {
		cfg.FreeDailyLimit = 4
	}
	if cfg.ReferralsPerReward <= 0 {
		cfg.ReferralsPerReward = 10
	}
	if cfg.PremiumDaysPerReward <= 0 {
		cfg.PremiumDaysPerReward = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Service{
		repo:   repo,
		cfg:    cfg,
		locks:  worker.NewKeyedLocks(),
		now:    time.Now,
		logger: logger,
	}
}

// SetClock overrides the time source. Tests use it to cross day
// boundaries without sleeping.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// FreeDailyLimit exposes the configured free-tier limit.
func (s *Service) FreeDailyLimit() int {
	return s.cfg.FreeDailyLimit
}

// ReferralsPerReward exposes the configured milestone size.
func (s *Service) ReferralsPerReward() int {
	return s.cfg.ReferralsPerReward
}

// PremiumDaysPerReward exposes the configured reward size.
func (s *Service) PremiumDaysPerReward() int {
	return s.cfg.PremiumDaysPerReward
}

// RecordFirstContact lazily creates the identity record and, when a
// referrer is given, attributes the new identity to it. It reports
// whether the record was created (first ever contact).
func (s *Service) RecordFirstContact(ctx context.Context, id int64, referrer *int64) (bool, error) {
	var created bool
	err := s.locks.Do(id, func() error {
		_, c, err := s.repo.EnsureIdentity(ctx, id, s.today(), s.trialExpiry())
		if err != nil {
			return wrapStore(err)
		}
		created = c
		return nil
	})
	if err != nil {
		return false, err
	}

	if referrer != nil {
		if err := s.Attribute(ctx, id, *referrer); err != nil {
			return created, err
		}
	}
	return created, nil
}

// Summary reports the identity's current entitlement state, with the
// quota window rolled to today so the usage figure is meaningful.
func (s *Service) Summary(ctx context.Context, id int64) (Summary, error) {
	var summary Summary
	err := s.locks.Do(id, func() error {
		day := s.today()
		if _, _, err := s.repo.EnsureIdentity(ctx, id, day, s.trialExpiry()); err != nil {
			return wrapStore(err)
		}
		if err := s.repo.RollWindow(ctx, id, day); err != nil {
			return wrapStore(err)
		}
		identity, err := s.repo.FindIdentity(ctx, id)
		if err != nil {
			return wrapStore(err)
		}

		summary = Summary{
			IsPremium:     identity.IsPremium(s.now()),
			PremiumExpiry: identity.PremiumExpiry,
			QuotaUsed:     identity.QuotaUsed,
			QuotaLimit:    s.cfg.FreeDailyLimit,
			ReferralCount: identity.ReferralCount,
			PacksGranted:  identity.RewardPacksGranted,
		}
		summary.ReferralsToNextReward = s.cfg.ReferralsPerReward - identity.ReferralCount%s.cfg.ReferralsPerReward
		return nil
	})
	return summary, err
}

// Summary is the caller-facing entitlement snapshot.
type Summary struct {
	IsPremium             bool
	PremiumExpiry         *time.Time
	QuotaUsed             int
	QuotaLimit            int
	ReferralCount         int
	PacksGranted          int
	ReferralsToNextReward int
}

func (s *Service) today() string {
	return s.now().In(s.cfg.Location).Format("2006-01-02")
}

func (s *Service) trialExpiry() *time.Time {
	if s.cfg.TrialDays <= 0 {
		return nil
	}
	expiry := s.now().Add(time.Duration(s.cfg.TrialDays) * 24 * time.Hour)
	return &expiry
}

func wrapStore(err error) error {
	return fmt.Errorf("%w: %v", ErrStore, err)
}
