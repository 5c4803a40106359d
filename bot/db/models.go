package db

import (
	"time"

	"github.com/adsskipbot/AdsSkipBot-Go/bot"
	"gorm.io/gorm"
)

// IdentityModel mirrors the identities schema: one row of quota, premium
// and referral state per Telegram user.
type IdentityModel struct {
	gorm.Model
	UserID             int64  `gorm:"uniqueIndex;not null"`
	QuotaDate          string `gorm:"not null;default:''"`
	QuotaUsed          int    `gorm:"not null;default:0"`
	PremiumExpiry      *time.Time
	ReferralCount      int    `gorm:"not null;default:0"`
	RewardPacksGranted int    `gorm:"not null;default:0"`
	ReferredBy         *int64 `gorm:"index"`
}

func (IdentityModel) TableName() string {
	return "identities"
}

// BotStatModel stores aggregated bot statistics.
type BotStatModel struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value int64
}

func (BotStatModel) TableName() string {
	return "bot_stats"
}

func toInternal(model IdentityModel) *bot.Identity {
	return &bot.Identity{
		ID:                 model.UserID,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
		QuotaDate:          model.QuotaDate,
		QuotaUsed:          model.QuotaUsed,
		PremiumExpiry:      model.PremiumExpiry,
		ReferralCount:      model.ReferralCount,
		RewardPacksGranted: model.RewardPacksGranted,
		ReferredBy:         model.ReferredBy,
	}
}
