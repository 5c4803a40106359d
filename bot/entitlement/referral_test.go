package entitlement

import (
	"context"
	"testing"
)

func TestReferralMilestoneGrantsPremium(t *testing.T) {
	svc := newTestService(t, Settings{ReferralsPerReward: 3, PremiumDaysPerReward: 1})
	ctx := context.Background()

	const referrer = int64(1000)

	// Two referrals: below the milestone, no premium yet.
	for i := int64(1); i <= 2; i++ {
		if err := svc.Attribute(ctx, 2000+i, referrer); err != nil {
			t.Fatalf("Attribute #%d: %v", i, err)
		}
	}
	summary, err := svc.Summary(ctx, referrer)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.IsPremium {
		t.Fatal("premium granted below milestone")
	}
	if summary.ReferralCount != 2 {
		t.Fatalf("referral count = %d, want 2", summary.ReferralCount)
	}
	if summary.ReferralsToNextReward != 1 {
		t.Fatalf("referrals to next reward = %d, want 1", summary.ReferralsToNextReward)
	}

	// The third referral completes the milestone.
	if err := svc.Attribute(ctx, 2003, referrer); err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	summary, err = svc.Summary(ctx, referrer)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !summary.IsPremium {
		t.Fatal("milestone should grant premium")
	}
	if summary.PacksGranted != 1 {
		t.Fatalf("packs granted = %d, want 1", summary.PacksGranted)
	}

	// Three more referrals earn a second pack.
	for i := int64(4); i <= 6; i++ {
		if err := svc.Attribute(ctx, 2000+i, referrer); err != nil {
			t.Fatalf("Attribute #%d: %v", i, err)
		}
	}
	summary, err = svc.Summary(ctx, referrer)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.PacksGranted != 2 {
		t.Fatalf("packs granted = %d, want 2", summary.PacksGranted)
	}
}

func TestSelfReferralIgnored(t *testing.T) {
	svc := newTestService(t, Settings{ReferralsPerReward: 1})
	ctx := context.Background()

	if err := svc.Attribute(ctx, 42, 42); err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	summary, err := svc.Summary(ctx, 42)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.ReferralCount != 0 || summary.PacksGranted != 0 {
		t.Fatalf("self-referral credited: %+v", summary)
	}
}

func TestAttributionIsSticky(t *testing.T) {
	svc := newTestService(t, Settings{ReferralsPerReward: 10})
	ctx := context.Background()

	if err := svc.Attribute(ctx, 50, 60); err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	// A second referrer gets no credit for the same user.
	if err := svc.Attribute(ctx, 50, 70); err != nil {
		t.Fatalf("Attribute second: %v", err)
	}
	// Nor does replaying the original attribution.
	if err := svc.Attribute(ctx, 50, 60); err != nil {
		t.Fatalf("Attribute replay: %v", err)
	}

	first, err := svc.Summary(ctx, 60)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if first.ReferralCount != 1 {
		t.Fatalf("first referrer count = %d, want 1", first.ReferralCount)
	}

	second, err := svc.Summary(ctx, 70)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if second.ReferralCount != 0 {
		t.Fatalf("second referrer count = %d, want 0", second.ReferralCount)
	}
}

func TestReferrerAutoCreatedWithoutTrial(t *testing.T) {
	svc := newTestService(t, Settings{TrialDays: 1, ReferralsPerReward: 10})
	ctx := context.Background()

	// The referrer has never talked to the bot; attribution creates its
	// row with a zero baseline instead of a fresh trial.
	if err := svc.Attribute(ctx, 80, 90); err != nil {
		t.Fatalf("Attribute: %v", err)
	}

	summary, err := svc.Summary(ctx, 90)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.IsPremium {
		t.Fatal("auto-created referrer must not receive a trial")
	}
	if summary.ReferralCount != 1 {
		t.Fatalf("referral count = %d, want 1", summary.ReferralCount)
	}
}

func TestFirstContactWithReferrer(t *testing.T) {
	svc := newTestService(t, Settings{ReferralsPerReward: 10})
	ctx := context.Background()

	referrer := int64(100)
	created, err := svc.RecordFirstContact(ctx, 200, &referrer)
	if err != nil {
		t.Fatalf("RecordFirstContact: %v", err)
	}
	if !created {
		t.Fatal("expected creation")
	}

	summary, err := svc.Summary(ctx, referrer)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.ReferralCount != 1 {
		t.Fatalf("referral count = %d, want 1", summary.ReferralCount)
	}
}
