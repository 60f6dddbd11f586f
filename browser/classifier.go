package browser

import (
	"regexp"
	"strings"
)

// matchCodePattern pulls the two or three digit number-matching code out of
// the Entra challenge screen's display-sign element.
var matchCodePattern = regexp.MustCompile(`(?s)idRichContext_DisplaySign[^>]*>\s*(\d{2,3})\s*<`)

// entraClassifier recognizes Microsoft Entra ID sign-in pages. Heuristics are
// ordered so that errors beat challenges and challenges beat success: an
// ambiguous page never classifies as a successful login.
type entraClassifier struct {
	successURLPrefix string
}

// NewEntraClassifier returns the classifier for Entra-fronted login flows.
// successURLPrefix marks the post-login landing page.
func NewEntraClassifier(successURLPrefix string) Classifier {
	return &entraClassifier{successURLPrefix: successURLPrefix}
}

var loginErrorMarkers = []string{
	"your account or password is incorrect",
	"we couldn't find an account",
	"this username may be incorrect",
	`id="passworderror"`,
	`id="usernameerror"`,
	"your account has been locked",
	"too many sign-in attempts",
}

var challengeMarkers = []string{
	"iddiv_saotcas_title",
	"approve sign in request",
	"open your authenticator app",
	"idrichcontext_displaysign",
}

var deniedMarkers = []string{
	"iddiv_saasds_title",
	"request was denied",
	"we didn't hear from you",
	"iddiv_saasto_title",
	"we've hit a snag",
	"sign-in request was declined",
}

// ClassifyLogin inspects the settled page after credential submission.
func (c *entraClassifier) ClassifyLogin(state PageState) LoginResult {
	html := strings.ToLower(state.HTML)

	for _, marker := range loginErrorMarkers {
		if strings.Contains(html, marker) {
			return LoginResult{Outcome: OutcomeFailed, Reason: "credential error banner: " + marker}
		}
	}

	for _, marker := range challengeMarkers {
		if strings.Contains(html, marker) {
			result := LoginResult{Outcome: OutcomeChallenge}
			if m := matchCodePattern.FindStringSubmatch(state.HTML); m != nil {
				result.MatchCode = m[1]
			}
			if result.MatchCode == "" {
				// A challenge screen without a readable code is unusable;
				// the caller cannot tell the user which number to tap.
				return LoginResult{Outcome: OutcomeFailed, Reason: "challenge screen without match code"}
			}
			return result
		}
	}

	if c.successURLPrefix != "" && strings.HasPrefix(state.URL, c.successURLPrefix) {
		return LoginResult{Outcome: OutcomeLinked}
	}
	return LoginResult{Outcome: OutcomeFailed, Reason: "unrecognized page: " + state.URL}
}

// ClassifyApproval inspects the page during approval polling. Ambiguous pages
// stay Pending; only an explicit denial marker or the success URL ends the
// wait.
func (c *entraClassifier) ClassifyApproval(state PageState) ApprovalResult {
	html := strings.ToLower(state.HTML)

	for _, marker := range deniedMarkers {
		if strings.Contains(html, marker) {
			return ApprovalResult{Outcome: ApprovalDenied, Reason: "denial banner: " + marker}
		}
	}

	// A page still showing the challenge screen is pending no matter what its
	// URL says; the prefix check below only decides once the challenge UI is
	// gone.
	for _, marker := range challengeMarkers {
		if strings.Contains(html, marker) {
			return ApprovalResult{Outcome: ApprovalPending}
		}
	}

	if c.successURLPrefix != "" && strings.HasPrefix(state.URL, c.successURLPrefix) {
		return ApprovalResult{Outcome: ApprovalApproved}
	}
	// The stay-signed-in interstitial only appears after an approved push.
	if strings.Contains(html, "stay signed in?") || strings.Contains(html, "kmsititle") {
		return ApprovalResult{Outcome: ApprovalApproved}
	}

	return ApprovalResult{Outcome: ApprovalPending}
}
