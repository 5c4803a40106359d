package handler

import "testing"

func TestCommandArgument(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/start", ""},
		{"/start 123456", "123456"},
		{"/broadcast hello  world", "hello  world"},
		{"  /start   42 ", "42"},
	}
	for _, tc := range cases {
		if got := commandArgument(tc.in); got != tc.want {
			t.Fatalf("commandArgument(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseReferrer(t *testing.T) {
	if got := parseReferrer(""); got != nil {
		t.Fatalf("empty arg: got %v, want nil", *got)
	}
	if got := parseReferrer("abc"); got != nil {
		t.Fatalf("non-numeric arg: got %v, want nil", *got)
	}
	if got := parseReferrer("-5"); got != nil {
		t.Fatalf("negative arg: got %v, want nil", *got)
	}
	got := parseReferrer("123456789")
	if got == nil || *got != 123456789 {
		t.Fatalf("numeric arg: got %v, want 123456789", got)
	}
}

func TestExtractURL(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		found bool
	}{
		{"https://example.com/a?b=1", "https://example.com/a?b=1", true},
		{"check this out: http://short.ly/x please", "http://short.ly/x", true},
		{"www.example.com/path", "https://www.example.com/path", true},
		{"HTTPS://EXAMPLE.COM/A", "HTTPS://EXAMPLE.COM/A", true},
		{"no links here", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, found := extractURL(tc.in)
		if got != tc.want || found != tc.found {
			t.Fatalf("extractURL(%q) = %q, %v; want %q, %v", tc.in, got, found, tc.want, tc.found)
		}
	}
}

func TestReferralLink(t *testing.T) {
	if got := referralLink("AdsSkipBot", 42); got != "https://t.me/AdsSkipBot?start=42" {
		t.Fatalf("referralLink = %q", got)
	}
}

func TestIsAdmin(t *testing.T) {
	admins := []int64{1, 2, 3}
	if !isAdmin(admins, 2) {
		t.Fatal("2 should be admin")
	}
	if isAdmin(admins, 4) {
		t.Fatal("4 should not be admin")
	}
	if isAdmin(nil, 1) {
		t.Fatal("empty admin list should reject everyone")
	}
}
