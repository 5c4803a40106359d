package entitlement

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/adsskipbot/AdsSkipBot-Go/bot/db"
)

func newTestService(t *testing.T, cfg Settings) *Service {
	t.Helper()
	repo, err := db.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return NewService(repo, cfg, nil)
}

func TestTrialGrantsUnlimitedAtFirstContact(t *testing.T) {
	svc := newTestService(t, Settings{TrialDays: 1})
	ctx := context.Background()

	created, err := svc.RecordFirstContact(ctx, 1, nil)
	if err != nil {
		t.Fatalf("RecordFirstContact: %v", err)
	}
	if !created {
		t.Fatal("first contact should create the identity")
	}

	decision, err := svc.Check(ctx, 1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.State != StateUnlimited || !decision.Permitted {
		t.Fatalf("trial user decision = %+v, want unlimited", decision)
	}

	created, err = svc.RecordFirstContact(ctx, 1, nil)
	if err != nil {
		t.Fatalf("RecordFirstContact: %v", err)
	}
	if created {
		t.Fatal("second contact must not be a creation")
	}
}

func TestFreeQuotaSequence(t *testing.T) {
	svc := newTestService(t, Settings{FreeDailyLimit: 4})
	ctx := context.Background()

	wantRemaining := []int{3, 2, 1, 0}
	for i, want := range wantRemaining {
		decision, err := svc.CheckAndConsume(ctx, 2)
		if err != nil {
			t.Fatalf("CheckAndConsume #%d: %v", i+1, err)
		}
		if !decision.Permitted || decision.State != StateWithinLimit {
			t.Fatalf("CheckAndConsume #%d = %+v, want permitted", i+1, decision)
		}
		if decision.Remaining != want {
			t.Fatalf("CheckAndConsume #%d remaining = %d, want %d", i+1, decision.Remaining, want)
		}
	}

	decision, err := svc.CheckAndConsume(ctx, 2)
	if err != nil {
		t.Fatalf("CheckAndConsume over limit: %v", err)
	}
	if decision.Permitted || decision.State != StateAtLimit || decision.Remaining != 0 {
		t.Fatalf("over-limit decision = %+v", decision)
	}
}

func TestCheckDoesNotConsume(t *testing.T) {
	svc := newTestService(t, Settings{FreeDailyLimit: 4})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		decision, err := svc.Check(ctx, 3)
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if !decision.Permitted || decision.Remaining != 4 {
			t.Fatalf("Check #%d = %+v, want full quota", i+1, decision)
		}
	}

	decision, err := svc.CheckAndConsume(ctx, 3)
	if err != nil {
		t.Fatalf("CheckAndConsume: %v", err)
	}
	if decision.Remaining != 3 {
		t.Fatalf("first consume remaining = %d, want 3", decision.Remaining)
	}
}

func TestQuotaWindowRollsAtMidnight(t *testing.T) {
	svc := newTestService(t, Settings{FreeDailyLimit: 2})
	ctx := context.Background()

	day1 := time.Date(2026, 8, 29, 22, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return day1 })

	for i := 0; i < 2; i++ {
		if _, err := svc.CheckAndConsume(ctx, 4); err != nil {
			t.Fatalf("CheckAndConsume: %v", err)
		}
	}
	decision, err := svc.Check(ctx, 4)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Permitted {
		t.Fatalf("quota should be exhausted: %+v", decision)
	}

	day2 := day1.Add(3 * time.Hour)
	svc.SetClock(func() time.Time { return day2 })

	decision, err = svc.Check(ctx, 4)
	if err != nil {
		t.Fatalf("Check after midnight: %v", err)
	}
	if !decision.Permitted || decision.Remaining != 2 {
		t.Fatalf("post-midnight decision = %+v, want fresh quota", decision)
	}
}

func TestConcurrentConsumeRespectsLimit(t *testing.T) {
	svc := newTestService(t, Settings{FreeDailyLimit: 4})
	ctx := context.Background()

	const attempts = 12
	var wg sync.WaitGroup
	var mu sync.Mutex
	permitted := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := svc.CheckAndConsume(ctx, 5)
			if err != nil {
				t.Errorf("CheckAndConsume: %v", err)
				return
			}
			if decision.Permitted {
				mu.Lock()
				permitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if permitted != 4 {
		t.Fatalf("permitted = %d, want exactly 4", permitted)
	}
}

func TestSummaryReportsState(t *testing.T) {
	svc := newTestService(t, Settings{FreeDailyLimit: 4, ReferralsPerReward: 10})
	ctx := context.Background()

	if _, err := svc.CheckAndConsume(ctx, 6); err != nil {
		t.Fatalf("CheckAndConsume: %v", err)
	}

	summary, err := svc.Summary(ctx, 6)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.IsPremium {
		t.Fatal("no trial configured, user should not be premium")
	}
	if summary.QuotaUsed != 1 || summary.QuotaLimit != 4 {
		t.Fatalf("summary quota = %d/%d, want 1/4", summary.QuotaUsed, summary.QuotaLimit)
	}
	if summary.ReferralsToNextReward != 10 {
		t.Fatalf("referrals to next reward = %d, want 10", summary.ReferralsToNextReward)
	}
}
