package handler

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
)

func (h *Handlers) handleAbout(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString("🤖 AdsSkipBot\n\n")
	fmt.Fprintf(&b, "Version: %s\n", h.Build.Version)
	if h.Build.CommitSHA != "" {
		fmt.Fprintf(&b, "Commit: %s\n", h.Build.CommitSHA)
	}
	if h.Build.BuildTime != "" {
		fmt.Fprintf(&b, "Built: %s\n", h.Build.BuildTime)
	}
	fmt.Fprintf(&b, "Runtime: %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	return h.reply(ctx, message.Chat.ID, b.String())
}

// handleStats is an admin-only counters dump.
func (h *Handlers) handleStats(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}
	if !isAdmin(h.Admins, message.From.ID) {
		return h.reply(ctx, message.Chat.ID, notAdminText)
	}

	cleaned, err := h.Repo.GetStat(ctx.Context(), "clean_count")
	if err != nil {
		h.Logger.Error("stat read failed", "error", err)
		return h.reply(ctx, message.Chat.ID, storeErrorText)
	}
	ids, err := h.Repo.AllIdentityIDs(ctx.Context())
	if err != nil {
		h.Logger.Error("identity count failed", "error", err)
		return h.reply(ctx, message.Chat.ID, storeErrorText)
	}

	text := fmt.Sprintf("📈 Stats\n\nUsers: %d\nLinks cleaned: %d", len(ids), cleaned)
	return h.reply(ctx, message.Chat.ID, text)
}
