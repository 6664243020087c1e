// internal/ats/blockers.go
package ats

import "strings"

// BlockerKind identifies a page state that stops automated progress.
type BlockerKind string

const (
	BlockerCaptcha BlockerKind = "captcha"
	BlockerMFA     BlockerKind = "mfa"
)

// Fixed indicator sets, matched case-insensitively against the page HTML.
// CAPTCHA indicators are always checked before MFA indicators.
var captchaIndicators = []string{
	"g-recaptcha",
	"recaptcha",
	"h-captcha",
	"hcaptcha",
	"cf-turnstile",
	"are you a robot",
	"unusual traffic",
	"captcha",
}

var mfaIndicators = []string{
	"two-factor",
	"multi-factor",
	"2fa",
	"verification code",
	"one-time code",
	"authenticator app",
	"security code was sent",
}

// DetectBlocker scans page HTML for blocker indicators. CAPTCHA wins when
// both kinds are present.
func DetectBlocker(html string) (BlockerKind, string, bool) {
	lower := strings.ToLower(html)
	for _, indicator := range captchaIndicators {
		if strings.Contains(lower, indicator) {
			return BlockerCaptcha, indicator, true
		}
	}
	for _, indicator := range mfaIndicators {
		if strings.Contains(lower, indicator) {
			return BlockerMFA, indicator, true
		}
	}
	return "", "", false
}
