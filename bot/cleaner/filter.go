package cleaner

import (
	"net/url"
	"strings"
)

// defaultDenyKeys are stripped when no denylist is configured. They cover
// the common advertising/analytics attribution parameters.
var defaultDenyKeys = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id",
	"fbclid", "gclid", "gclsrc", "dclid", "msclkid", "yclid", "twclid",
	"igshid", "mc_eid", "mc_cid", "_hsenc", "_hsmi", "mkt_tok", "oly_enc_id",
	"spm", "scm", "ref_src", "ref_url", "s_kwcid",
}

// defaultDenyTokens extend the exact list: any key containing one of these
// substrings (after lowercasing) is treated as a tracking parameter.
var defaultDenyTokens = []string{"utm_"}

// Denylist decides whether a query key is a tracking parameter. Matching
// is case-insensitive; a key matches on exact name or when it contains a
// configured token substring.
type Denylist struct {
	exact  map[string]struct{}
	tokens []string
}

// NewDenylist builds a denylist from exact key names and substring tokens.
// Empty slices fall back to the built-in defaults.
func NewDenylist(keys, tokens []string) *Denylist {
	if len(keys) == 0 {
		keys = defaultDenyKeys
	}
	if len(tokens) == 0 {
		tokens = defaultDenyTokens
	}

	exact := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key != "" {
			exact[key] = struct{}{}
		}
	}

	lowered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" {
			lowered = append(lowered, token)
		}
	}

	return &Denylist{exact: exact, tokens: lowered}
}

// Matches reports whether key names a tracking parameter.
func (d *Denylist) Matches(key string) bool {
	if d == nil {
		return false
	}
	key = strings.ToLower(key)
	if _, ok := d.exact[key]; ok {
		return true
	}
	for _, token := range d.tokens {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}

// FilterParams removes denylisted query parameters from rawURL. Every kept
// pair stays byte-for-byte as it appeared, in its original relative order;
// scheme, host, path and fragment are untouched. Pairs whose key cannot be
// URL-decoded are dropped rather than failing. Unparseable input is
// returned unchanged.
func FilterParams(rawURL string, deny *Denylist) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.RawQuery == "" {
		return rawURL
	}

	segments := strings.Split(parsed.RawQuery, "&")
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		key := segment
		if i := strings.Index(segment, "="); i >= 0 {
			key = segment[:i]
		}
		decoded, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		if deny.Matches(decoded) {
			continue
		}
		kept = append(kept, segment)
	}

	parsed.RawQuery = strings.Join(kept, "&")
	return parsed.String()
}
