package httpapi

import "strings"

// botAllowlist is the closed set of user-agent substrings (lowercased)
// recognized as legitimate crawlers/integrations that are always let
// through regardless of the generic bot heuristic (spec.md §9).
var botAllowlist = []string{
	"googlebot", "bingbot", "slurp", "duckduckbot", "baiduspider",
	"yandexbot", "facebookexternalhit", "twitterbot", "linkedinbot",
	"whatsapp", "telegrambot", "postman", "insomnia", "uptimerobot",
	"pingdom", "newrelic", "datadog", "github-camo", "slack-imgproxy",
}

// botDenylist is UA substrings treated as generic HTTP clients/scrapers
// and rejected outright (spec.md §9).
var botDenylist = []string{
	"bot", "spider", "crawler", "scraper", "monitor", "fetch",
	"curl", "wget", "python-requests", "okhttp", "go-http-client",
}

// browserSignatures are the tokens that, alongside a "Mozilla/" prefix,
// mark a user agent as a real browser (spec.md §4.7 middleware step 4).
var browserSignatures = []string{"gecko/", "webkit/", "chrome/", "safari/"}

const minGenuineUALength = 10

// classifyUserAgent reports whether ua should be let through the bot
// filter. The allow-list always wins; a recognized browser signature
// always wins; everything else falls to the deny-list substrings and
// the short/signature-less generic-bot heuristic.
func classifyUserAgent(ua string) (allowed bool) {
	lower := strings.ToLower(ua)

	for _, a := range botAllowlist {
		if strings.Contains(lower, a) {
			return true
		}
	}

	if isBrowser(lower) {
		return true
	}

	for _, d := range botDenylist {
		if strings.Contains(lower, d) {
			return false
		}
	}

	// A UA shorter than minGenuineUALength is rejected as a generic bot.
	// A longer UA that matched no deny-list entry is accepted even without
	// a browser signature, so non-browser MCP clients get through.
	return len(ua) >= minGenuineUALength
}

func isBrowser(lowerUA string) bool {
	if !strings.HasPrefix(lowerUA, "mozilla/") {
		return false
	}
	for _, sig := range browserSignatures {
		if strings.Contains(lowerUA, sig) {
			return true
		}
	}
	return false
}
