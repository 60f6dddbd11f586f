package browser

import "time"

// LoginOutcome is the coarse result of a submitted login form.
type LoginOutcome uint8

const (
	// OutcomeFailed reports rejected credentials or an unrecognizable page.
	OutcomeFailed LoginOutcome = iota
	// OutcomeLinked reports a completed login with no further challenge.
	OutcomeLinked
	// OutcomeChallenge reports a pending push challenge with a match code.
	OutcomeChallenge
)

// ApprovalOutcome is the coarse result of one approval poll.
type ApprovalOutcome uint8

const (
	// ApprovalPending reports that the challenge screen is still showing.
	ApprovalPending ApprovalOutcome = iota
	// ApprovalApproved reports that the push was approved and login finished.
	ApprovalApproved
	// ApprovalDenied reports an explicit denial or challenge timeout page.
	ApprovalDenied
)

// PageState is a snapshot of a settled page handed to the classifier.
type PageState struct {
	URL  string
	HTML string
}

// LoginResult describes the settled page after credential submission.
// Reason carries an internal diagnostic; callers must map it to their own
// error vocabulary rather than surface it.
type LoginResult struct {
	Outcome   LoginOutcome
	MatchCode string
	Reason    string
}

// ApprovalResult describes the settled page during approval polling.
type ApprovalResult struct {
	Outcome ApprovalOutcome
	Reason  string
}

// Classifier decides what a captured page state means. Implementations must
// be stateless and safe for concurrent use.
type Classifier interface {
	ClassifyLogin(state PageState) LoginResult
	ClassifyApproval(state PageState) ApprovalResult
}

// Config controls the browser binary, target URLs, form selectors, and
// pacing. Zero-value fields fall back to Entra defaults via withDefaults.
type Config struct {
	// LoginURL is the institution's login entry point.
	LoginURL string
	// SuccessURLPrefix marks post-login pages. A page only classifies as
	// success when its URL carries this prefix and shows no error banner.
	// Required; it must name the post-login landing host, never the login
	// host itself, or pages that merely stayed on the login flow would pass
	// the prefix check. Left empty, the classifier never reports success.
	SuccessURLPrefix string

	// Bin is an explicit Chromium binary path. Empty lets go-rod resolve or
	// download a managed browser.
	Bin string
	// DebuggerURL attaches to an already running browser instead of
	// launching one. Takes precedence over Bin.
	DebuggerURL string
	// Headless defaults to true; set HeadfulDebug to watch the browser.
	HeadfulDebug bool

	// NavigationTimeout bounds page loads, InteractionTimeout bounds element
	// lookups and input, SettleDelay is the post-submit wait before the page
	// snapshot, PollInterval paces approval polling.
	NavigationTimeout  time.Duration
	InteractionTimeout time.Duration
	SettleDelay        time.Duration
	PollInterval       time.Duration

	// Form selectors for the login page.
	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string
}

func (c Config) withDefaults() Config {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 30 * time.Second
	}
	if c.InteractionTimeout <= 0 {
		c.InteractionTimeout = 10 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.UsernameSelector == "" {
		c.UsernameSelector = `input[name="loginfmt"]`
	}
	if c.PasswordSelector == "" {
		c.PasswordSelector = `input[name="passwd"]`
	}
	if c.SubmitSelector == "" {
		c.SubmitSelector = `input[type="submit"]`
	}
	return c
}
