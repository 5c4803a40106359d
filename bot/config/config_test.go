package config

import (
	"os"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "test_config_*.ini")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("write config: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoadINI(t *testing.T) {
	path := writeTempConfig(t, `BOT_TOKEN = test_token
BotAdmin = 123,456
FreeDailyLimit = 6
QuotaTimezone = Asia/Dhaka
TrackingParams = utm_source, fbclid ,gclid
`)

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if conf.GetString("BOT_TOKEN") != "test_token" {
		t.Fatalf("expected BOT_TOKEN=test_token, got %s", conf.GetString("BOT_TOKEN"))
	}

	admins := conf.GetStringList("BotAdmin")
	if len(admins) != 2 || admins[0] != "123" || admins[1] != "456" {
		t.Fatalf("expected BotAdmin to be parsed, got %v", admins)
	}

	if conf.GetInt("FreeDailyLimit") != 6 {
		t.Fatalf("expected FreeDailyLimit=6, got %d", conf.GetInt("FreeDailyLimit"))
	}

	list := conf.GetStringList("TrackingParams")
	if len(list) != 3 || list[0] != "utm_source" || list[1] != "fbclid" || list[2] != "gclid" {
		t.Fatalf("unexpected tracking params: %v", list)
	}

	loc, err := conf.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.String() != "Asia/Dhaka" {
		t.Fatalf("unexpected location: %s", loc)
	}
}

func TestDefaults(t *testing.T) {
	path := writeTempConfig(t, `BOT_TOKEN = only_token`)

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if conf.GetInt("FreeDailyLimit") != 4 {
		t.Fatalf("expected default FreeDailyLimit=4, got %d", conf.GetInt("FreeDailyLimit"))
	}
	if conf.GetInt("ReferralsPerReward") != 10 {
		t.Fatalf("expected default ReferralsPerReward=10, got %d", conf.GetInt("ReferralsPerReward"))
	}
	if conf.GetInt("PremiumDaysPerReward") != 1 {
		t.Fatalf("expected default PremiumDaysPerReward=1, got %d", conf.GetInt("PremiumDaysPerReward"))
	}
	if conf.GetInt("MaxRedirectHops") != 10 {
		t.Fatalf("expected default MaxRedirectHops=10, got %d", conf.GetInt("MaxRedirectHops"))
	}
	if conf.GetStringList("TrackingParams") != nil {
		t.Fatalf("expected empty default tracking params")
	}

	loc, err := conf.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc != time.UTC {
		t.Fatalf("expected UTC default, got %s", loc)
	}
}

func TestBadTimezone(t *testing.T) {
	path := writeTempConfig(t, `BOT_TOKEN = tok
QuotaTimezone = Not/AZone
`)

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if _, err := conf.Location(); err == nil {
		t.Fatal("expected error for bad timezone")
	}
}
