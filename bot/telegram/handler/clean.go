package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"github.com/adsskipbot/AdsSkipBot-Go/bot/cleaner"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/entitlement"
)

// handleClean is the catch-all text handler. It resolves and cleans the
// first URL in the message, charging one quota unit only after the clean
// result is produced. A degraded result (network trouble, the original
// URL filtered in place) still counts against quota.
func (h *Handlers) handleClean(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}
	if strings.HasPrefix(strings.TrimSpace(message.Text), "/") {
		// Unknown command, not a link.
		return nil
	}
	userID := message.From.ID
	chatID := message.Chat.ID

	rawURL, found := extractURL(message.Text)
	if !found {
		return h.reply(ctx, chatID, invalidURLText)
	}
	if err := cleaner.ValidateURL(rawURL); err != nil {
		return h.reply(ctx, chatID, invalidURLText)
	}

	// Cheap read-only gate before any network work.
	pre, err := h.Entitlement.Check(ctx.Context(), userID)
	if err != nil {
		h.Logger.Error("quota check failed", "user", userID, "error", err)
		return h.reply(ctx, chatID, storeErrorText)
	}
	if !pre.Permitted {
		return h.reply(ctx, chatID, h.limitText())
	}

	var result cleaner.Result
	err = h.Pool.SubmitWaitContext(ctx.Context(), func() error {
		var cleanErr error
		result, cleanErr = h.Cleaner.Clean(ctx.Context(), rawURL)
		return cleanErr
	})
	if err != nil {
		if errors.Is(err, cleaner.ErrMalformedURL) {
			return h.reply(ctx, chatID, invalidURLText)
		}
		h.Logger.Error("clean failed", "user", userID, "url", rawURL, "error", err)
		return err
	}

	// Charge after the result exists. The atomic consume re-checks the
	// limit, so a racing burst of messages cannot overspend.
	decision, err := h.Entitlement.CheckAndConsume(ctx.Context(), userID)
	if err != nil {
		h.Logger.Error("quota consume failed", "user", userID, "error", err)
		return h.reply(ctx, chatID, storeErrorText)
	}
	if !decision.Permitted {
		return h.reply(ctx, chatID, h.limitText())
	}

	if err := h.Repo.IncrementStat(ctx.Context(), "clean_count"); err != nil {
		h.Logger.Warn("stat increment failed", "error", err)
	}

	return h.reply(ctx, chatID, h.cleanReply(result, decision))
}

func (h *Handlers) cleanReply(result cleaner.Result, decision entitlement.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, cleanResultText, result.URL)
	if result.Degraded {
		b.WriteString(degradedNoteText)
	}
	if decision.State == entitlement.StateUnlimited {
		b.WriteString(unlimitedNoteText)
	} else {
		fmt.Fprintf(&b, remainingNoteText, decision.Remaining, h.Entitlement.FreeDailyLimit())
	}
	return b.String()
}

func (h *Handlers) limitText() string {
	return fmt.Sprintf(limitReachedText,
		h.Entitlement.FreeDailyLimit(),
		"https://t.me/"+h.BotUsername)
}
