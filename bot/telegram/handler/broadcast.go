package handler

import (
	"fmt"
	"sync/atomic"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"golang.org/x/sync/errgroup"

	"github.com/adsskipbot/AdsSkipBot-Go/bot/telegram"
)

const broadcastConcurrency = 8

// handleBroadcast fans a message out to every known identity. Admin only.
// Per-chat rate limiting keeps the fan-out under the API flood limits;
// individual delivery failures (blocked bot, deleted account) are counted
// but do not abort the run.
func (h *Handlers) handleBroadcast(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}
	if !isAdmin(h.Admins, message.From.ID) {
		return h.reply(ctx, message.Chat.ID, notAdminText)
	}

	text := commandArgument(message.Text)
	if text == "" {
		return h.reply(ctx, message.Chat.ID, broadcastUsageText)
	}

	ids, err := h.Repo.AllIdentityIDs(ctx.Context())
	if err != nil {
		h.Logger.Error("broadcast id list failed", "error", err)
		return h.reply(ctx, message.Chat.ID, storeErrorText)
	}

	h.Logger.Info("broadcast started", "admin", message.From.ID, "recipients", len(ids))

	var sent, failed atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx.Context())
	group.SetLimit(broadcastConcurrency)

	for _, id := range ids {
		group.Go(func() error {
			_, err := telegram.SendMessageWithRetry(groupCtx, h.Limiter, ctx.Bot(),
				tu.Message(tu.ID(id), text))
			if err != nil {
				failed.Add(1)
				h.Logger.Debug("broadcast delivery failed", "chat", id, "error", err)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	h.Logger.Info("broadcast finished", "sent", sent.Load(), "failed", failed.Load())
	return h.reply(ctx, message.Chat.ID, fmt.Sprintf(broadcastDoneText, sent.Load(), failed.Load()))
}
