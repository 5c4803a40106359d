package handler

// User-facing message templates. Kept in one place so wording stays
// consistent across handlers.
const (
	welcomeText = "👋 Hi %s!\n\n" +
		"Send me any link and I'll follow its redirect chain, skip the ad " +
		"shorteners and strip the tracking junk, then hand you back a clean URL.\n\n" +
		"🎁 You have a free premium trial right now. After it ends you get " +
		"%d free links per day.\n\n" +
		"Invite friends with your personal link to earn more premium days:\n%s"

	welcomeBackText = "👋 Welcome back, %s!\n\n" +
		"Send me a link to clean. /status shows your remaining quota, " +
		"/help lists everything I can do."

	helpText = "ℹ️ What I do:\n\n" +
		"Send me any http or https link and I'll resolve every redirect " +
		"(including those sneaky meta-refresh pages), drop the tracking " +
		"parameters and reply with the clean destination URL.\n\n" +
		"Commands:\n" +
		"/start — intro and your referral link\n" +
		"/status — quota, premium and referral progress\n" +
		"/about — version info\n\n" +
		"Free accounts get %d links per day. Every %d invited friends earn " +
		"you %d premium day(s) with unlimited links."

	invalidURLText = "🤔 That doesn't look like a link I can work with. " +
		"Send me a full http:// or https:// URL."

	limitReachedText = "⛔ You've used all %d free links for today.\n\n" +
		"Come back tomorrow, or invite friends to earn unlimited premium " +
		"days:\n%s"

	storeErrorText = "😵 I'm having trouble reaching my database right now. " +
		"Please try again in a moment — your quota was not touched."

	cleanResultText = "✅ Clean link:\n%s"

	degradedNoteText = "\n\n⚠️ I couldn't reach the destination, so I only " +
		"stripped the tracking parameters from the link you sent."

	remainingNoteText = "\n\n📊 %d of %d free links left today."

	unlimitedNoteText = "\n\n💎 Premium — unlimited links."

	statusPremiumText = "💎 Premium until %s — unlimited links.\n\n" +
		"👥 Referrals: %d (%d more for the next premium day)\n" +
		"🔗 Your invite link:\n%s"

	statusFreeText = "🆓 Free plan: %d of %d links used today.\n\n" +
		"👥 Referrals: %d (%d more for the next premium day)\n" +
		"🔗 Your invite link:\n%s"

	broadcastUsageText = "Usage: /broadcast <message>"

	broadcastDoneText = "📣 Broadcast finished: %d delivered, %d failed."

	notAdminText = "🚫 This command is restricted to bot admins."
)
