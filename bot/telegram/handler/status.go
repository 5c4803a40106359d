package handler

import (
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
)

func (h *Handlers) handleStatus(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}
	userID := message.From.ID

	summary, err := h.Entitlement.Summary(ctx.Context(), userID)
	if err != nil {
		h.Logger.Error("status lookup failed", "user", userID, "error", err)
		return h.reply(ctx, message.Chat.ID, storeErrorText)
	}

	link := referralLink(h.BotUsername, userID)
	var text string
	if summary.IsPremium && summary.PremiumExpiry != nil {
		text = fmt.Sprintf(statusPremiumText,
			summary.PremiumExpiry.Format("2006-01-02 15:04 MST"),
			summary.ReferralCount,
			summary.ReferralsToNextReward,
			link,
		)
	} else {
		text = fmt.Sprintf(statusFreeText,
			summary.QuotaUsed,
			summary.QuotaLimit,
			summary.ReferralCount,
			summary.ReferralsToNextReward,
			link,
		)
	}
	return h.reply(ctx, message.Chat.ID, text)
}
