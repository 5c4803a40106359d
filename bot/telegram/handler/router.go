package handler

import (
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	botpkg "github.com/adsskipbot/AdsSkipBot-Go/bot"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/cleaner"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/entitlement"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/telegram"
	"github.com/adsskipbot/AdsSkipBot-Go/bot/worker"
)

// BuildInfo is the version stamp shown by /about.
type BuildInfo struct {
	Version   string
	CommitSHA string
	BuildTime string
	BuildArch string
}

// Handlers bundles the update handlers and their dependencies.
type Handlers struct {
	Bot         *telegram.Bot
	Limiter     *telegram.RateLimiter
	Pool        *worker.Pool
	Cleaner     *cleaner.Cleaner
	Entitlement *entitlement.Service
	Repo        botpkg.EntitlementRepository
	Logger      botpkg.Logger
	Admins      []int64
	BotUsername string
	Build       BuildInfo
}

// Register attaches all handlers to the dispatcher. Commands are matched
// first; the catch-all link handler takes every remaining text message.
func (h *Handlers) Register(bh *th.BotHandler) {
	bh.Handle(h.handleStart, th.CommandEqual("start"))
	bh.Handle(h.handleHelp, th.CommandEqual("help"))
	bh.Handle(h.handleStatus, th.CommandEqual("status"))
	bh.Handle(h.handleAbout, th.CommandEqual("about"))
	bh.Handle(h.handleBroadcast, th.CommandEqual("broadcast"))
	bh.Handle(h.handleStats, th.CommandEqual("stats"))
	bh.Handle(h.handleClean, th.AnyMessageWithText())
}

// Commands returns the command list published via setMyCommands.
func Commands() []telego.BotCommand {
	return []telego.BotCommand{
		{Command: "start", Description: "Intro and your referral link"},
		{Command: "help", Description: "How the bot works"},
		{Command: "status", Description: "Quota, premium and referrals"},
		{Command: "about", Description: "Version info"},
	}
}

// reply sends a plain text message to the chat under the rate limiter.
func (h *Handlers) reply(ctx *th.Context, chatID int64, text string) error {
	_, err := telegram.SendMessageWithRetry(ctx.Context(), h.Limiter, ctx.Bot(),
		tu.Message(tu.ID(chatID), text))
	if err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}
