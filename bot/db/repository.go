package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adsskipbot/AdsSkipBot-Go/bot"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Repository provides access to the entitlement database. All mutations
// are single guarded statements or short transactions, so concurrent
// requests touching the same identity never act on a stale snapshot.
type Repository struct {
	db *gorm.DB
}

// NewSQLiteRepository creates a repository backed by SQLite.
func NewSQLiteRepository(dsn string, gormLogger logger.Interface) (*Repository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn required")
	}

	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	dbDir := filepath.Dir(dsn)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 gormLogger,
	})
	if err != nil {
		return nil, err
	}

	if err := applySQLitePragmas(db); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&IdentityModel{}, &BotStatModel{}); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Repository{db: db}, nil
}

// ConfigurePool updates the database connection pool settings.
func (r *Repository) ConfigurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error {
	if r == nil || r.db == nil {
		return errors.New("repository not configured")
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if maxOpen >= 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime >= 0 {
		sqlDB.SetConnMaxLifetime(maxLifetime)
	}
	return nil
}

// EnsureIdentity creates the identity row if missing and reports whether
// it was created. New rows start with the current quota day and the trial
// expiry, if any.
func (r *Repository) EnsureIdentity(ctx context.Context, id int64, day string, trialExpiry *time.Time) (*bot.Identity, bool, error) {
	defaults := IdentityModel{
		UserID:        id,
		QuotaDate:     day,
		PremiumExpiry: trialExpiry,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&defaults)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected > 0

	var model IdentityModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&model).Error; err != nil {
		return nil, false, err
	}
	return toInternal(model), created, nil
}

// FindIdentity returns the identity record by user ID.
func (r *Repository) FindIdentity(ctx context.Context, id int64) (*bot.Identity, error) {
	var model IdentityModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&model).Error; err != nil {
		return nil, err
	}
	return toInternal(model), nil
}

// RollWindow resets the usage counter when the stored quota day differs
// from day. The guard makes the reset happen exactly once per boundary no
// matter how many callers race across it.
func (r *Repository) RollWindow(ctx context.Context, id int64, day string) error {
	return r.db.WithContext(ctx).Model(&IdentityModel{}).
		Where("user_id = ? AND quota_date <> ?", id, day).
		Updates(map[string]interface{}{"quota_date": day, "quota_used": 0}).Error
}

// ConsumeQuota rolls the window if needed, then increments quota_used by
// one while still under limit. It returns the usage after the call and
// whether the unit was granted.
func (r *Repository) ConsumeQuota(ctx context.Context, id int64, day string, limit int) (int, bool, error) {
	var used int
	var permitted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&IdentityModel{}).
			Where("user_id = ? AND quota_date <> ?", id, day).
			Updates(map[string]interface{}{"quota_date": day, "quota_used": 0}).Error; err != nil {
			return err
		}

		res := tx.Model(&IdentityModel{}).
			Where("user_id = ? AND quota_date = ? AND quota_used < ?", id, day, limit).
			UpdateColumn("quota_used", gorm.Expr("quota_used + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		permitted = res.RowsAffected > 0

		var model IdentityModel
		if err := tx.Where("user_id = ?", id).First(&model).Error; err != nil {
			return err
		}
		used = model.QuotaUsed
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return used, permitted, nil
}

// AddReferral atomically increments referral_count and returns the new
// value. The returned count, not caller arithmetic, decides reward packs.
func (r *Repository) AddReferral(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&IdentityModel{}).
			Where("user_id = ?", id).
			UpdateColumn("referral_count", gorm.Expr("referral_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var model IdentityModel
		if err := tx.Where("user_id = ?", id).First(&model).Error; err != nil {
			return err
		}
		count = model.ReferralCount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GrantRewardPacks raises reward_packs_granted to earnedPacks and extends
// premium by days per newly earned pack. The expiry extension starts at
// max(now, current expiry) so a grant never shortens or overlaps an
// existing premium period. The compare-and-set on the stored pack counter
// makes retries and races grant each milestone at most once.
func (r *Repository) GrantRewardPacks(ctx context.Context, id int64, earnedPacks, days int) (bool, error) {
	var granted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model IdentityModel
		if err := tx.Where("user_id = ?", id).First(&model).Error; err != nil {
			return err
		}
		if earnedPacks <= model.RewardPacksGranted {
			return nil
		}

		now := time.Now()
		base := now
		if model.PremiumExpiry != nil && model.PremiumExpiry.After(now) {
			base = *model.PremiumExpiry
		}
		newPacks := earnedPacks - model.RewardPacksGranted
		expiry := base.Add(time.Duration(newPacks*days) * 24 * time.Hour)

		res := tx.Model(&IdentityModel{}).
			Where("user_id = ? AND reward_packs_granted = ?", id, model.RewardPacksGranted).
			Updates(map[string]interface{}{
				"reward_packs_granted": earnedPacks,
				"premium_expiry":       expiry,
			})
		if res.Error != nil {
			return res.Error
		}
		granted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return granted, nil
}

// SetReferredBy sets the sticky attribution exactly once. The guard
// rejects both a second attribution and a self-referral at the storage
// layer, regardless of what the caller checked.
func (r *Repository) SetReferredBy(ctx context.Context, id, referrer int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&IdentityModel{}).
		Where("user_id = ? AND referred_by IS NULL AND user_id <> ?", id, referrer).
		UpdateColumn("referred_by", referrer)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountReferred returns how many identities were attributed to id.
func (r *Repository) CountReferred(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&IdentityModel{}).
		Where("referred_by = ?", id).Count(&count).Error
	return count, err
}

// AllIdentityIDs returns every known user ID, for admin broadcast.
func (r *Repository) AllIdentityIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&IdentityModel{}).
		Order("user_id").Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetStat returns a named counter, zero when absent.
func (r *Repository) GetStat(ctx context.Context, key string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("repository not configured")
	}
	var stat BotStatModel
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stat.Value, nil
}

// IncrementStat increments a named counter, creating it on first use.
func (r *Repository) IncrementStat(ctx context.Context, key string) error {
	if r == nil || r.db == nil {
		return errors.New("repository not configured")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&BotStatModel{}).Where("key = ?", key).UpdateColumn("value", gorm.Expr("value + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&BotStatModel{Key: key, Value: 1}).Error
	})
}

// Count returns total known identities.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&IdentityModel{}).Count(&count).Error
	return count, err
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func applySQLitePragmas(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-64000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, stmt := range pragmas {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
