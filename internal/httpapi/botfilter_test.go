package httpapi

import "testing"

func TestClassifyUserAgent_Allowlist(t *testing.T) {
	if !classifyUserAgent("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)") {
		t.Error("expected allow-listed crawler to pass")
	}
}

func TestClassifyUserAgent_Browser(t *testing.T) {
	ua := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	if !classifyUserAgent(ua) {
		t.Error("expected a real browser UA to pass")
	}
}

func TestClassifyUserAgent_Denylist(t *testing.T) {
	for _, ua := range []string{"curl/8.4.0", "python-requests/2.31.0", "Go-http-client/1.1"} {
		if classifyUserAgent(ua) {
			t.Errorf("expected %q to be rejected", ua)
		}
	}
}

func TestClassifyUserAgent_ShortGenericRejected(t *testing.T) {
	if classifyUserAgent("xyz") {
		t.Error("expected a short UA with no browser signature to be rejected")
	}
}

func TestClassifyUserAgent_LongWithoutSignatureAccepted(t *testing.T) {
	// Long enough and not denylisted, but also not a recognized browser
	// signature: treated as genuine per the length threshold.
	if !classifyUserAgent("SomeInternalToolingClient/3.2.1") {
		t.Error("expected a long, non-denylisted UA to pass")
	}
}

func TestIsBrowser_RequiresMozillaPrefix(t *testing.T) {
	if isBrowser("chrome/120.0 not-a-browser") {
		t.Error("expected UAs without the mozilla/ prefix to not classify as a browser")
	}
}
