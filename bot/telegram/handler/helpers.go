package handler

import (
	"fmt"
	"strconv"
	"strings"
)

// commandArgument returns everything after the command word, trimmed.
// "/start 123" yields "123"; a bare command yields "".
func commandArgument(text string) string {
	_, rest, found := strings.Cut(strings.TrimSpace(text), " ")
	if !found {
		return ""
	}
	return strings.TrimSpace(rest)
}

// parseReferrer interprets a /start deep-link payload as a referrer id.
// Anything that is not a positive integer is ignored.
func parseReferrer(arg string) *int64 {
	if arg == "" {
		return nil
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// extractURL picks the first URL-looking token out of a message. Tokens
// with an explicit scheme are taken as-is; a bare "www." host gets
// https prepended so users can paste links straight from an address bar.
func extractURL(text string) (string, bool) {
	for _, token := range strings.Fields(text) {
		lower := strings.ToLower(token)
		switch {
		case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
			return token, true
		case strings.HasPrefix(lower, "www."):
			return "https://" + token, true
		}
	}
	return "", false
}

// referralLink builds the deep link a user shares to get referral credit.
func referralLink(botUsername string, userID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", botUsername, userID)
}

func isAdmin(admins []int64, id int64) bool {
	for _, admin := range admins {
		if admin == id {
			return true
		}
	}
	return false
}
