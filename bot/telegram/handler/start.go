package handler

import (
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
)

func (h *Handlers) handleStart(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}
	userID := message.From.ID

	referrer := parseReferrer(commandArgument(message.Text))
	created, err := h.Entitlement.RecordFirstContact(ctx.Context(), userID, referrer)
	if err != nil {
		h.Logger.Error("first contact failed", "user", userID, "error", err)
		return h.reply(ctx, message.Chat.ID, storeErrorText)
	}

	if created {
		h.Logger.Info("new user", "user", userID, "referred", referrer != nil)
		text := fmt.Sprintf(welcomeText,
			message.From.FirstName,
			h.Entitlement.FreeDailyLimit(),
			referralLink(h.BotUsername, userID),
		)
		return h.reply(ctx, message.Chat.ID, text)
	}

	return h.reply(ctx, message.Chat.ID, fmt.Sprintf(welcomeBackText, message.From.FirstName))
}

func (h *Handlers) handleHelp(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil {
		return nil
	}
	text := fmt.Sprintf(helpText,
		h.Entitlement.FreeDailyLimit(),
		h.Entitlement.ReferralsPerReward(),
		h.Entitlement.PremiumDaysPerReward(),
	)
	return h.reply(ctx, message.Chat.ID, text)
}
