package engine

import (
	"errors"
	"net/http"
	"strings"
)

// ChallengeTitles are lower-cased page titles shown while an anti-bot
// interstitial is running.
var ChallengeTitles = []string{
	"just a moment",
	"checking your browser",
	"attention required",
	"please wait",
	"ddos-guard",
}

// ChallengeSelectors are elements present only on interstitial pages.
var ChallengeSelectors = []string{
	"#cf-challenge-running",
	"#challenge-running",
	"#challenge-stage",
	"#challenge-form",
	"#turnstile-wrapper",
	"#cf-spinner-please-wait",
}

// bodyMarkers are substrings of the interstitial markup.
var bodyMarkers = []string{
	"cf-challenge",
	"challenge-platform",
	"cf_chl_opt",
	"cf-browser-verification",
}

// IsChallengeTitle reports whether a page title belongs to an interstitial.
func IsChallengeTitle(title string) bool {
	t := strings.ToLower(title)
	for _, m := range ChallengeTitles {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}

// IsChallengeResponse reports whether a response is an anti-bot challenge
// rather than an ordinary error page. Only 403 and 503 qualify.
func IsChallengeResponse(status int, header http.Header, body string) bool {
	if status != http.StatusForbidden && status != http.StatusServiceUnavailable {
		return false
	}
	if header != nil && strings.EqualFold(header.Get("cf-mitigated"), "challenge") {
		return true
	}
	if IsChallengeTitle(extractTitle(body)) {
		return true
	}
	lower := strings.ToLower(body)
	for _, m := range bodyMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// isChallengeErr unwraps err to a StatusError and checks it.
func isChallengeErr(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return IsChallengeResponse(se.StatusCode, se.Header, se.Body)
}
