package browser

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Driver runs one linking session's login flow on a dedicated incognito
// page. A driver is single-use: Login, optionally WaitForApproval, then
// Cleanup. It is not safe for concurrent use; the session registry serializes
// access per session.
type Driver struct {
	cfg        Config
	page       *rod.Page
	classifier Classifier

	closeOnce sync.Once
}

// Login navigates to the login page, submits the credentials through the
// two-step form, waits for the page to settle, and classifies the result.
// Credentials are typed into the page and otherwise not retained.
func (d *Driver) Login(ctx context.Context, username, password string) (LoginResult, error) {
	nav := d.page.Timeout(d.cfg.NavigationTimeout)
	if err := nav.Navigate(d.cfg.LoginURL); err != nil {
		return LoginResult{}, err
	}
	if err := nav.WaitLoad(); err != nil {
		return LoginResult{}, err
	}

	if err := d.fillAndSubmit(d.cfg.UsernameSelector, username); err != nil {
		return LoginResult{}, err
	}
	// The password field renders on a second screen after the username is
	// accepted.
	if err := d.fillAndSubmit(d.cfg.PasswordSelector, password); err != nil {
		return LoginResult{}, err
	}

	state, err := d.settle(ctx)
	if err != nil {
		return LoginResult{}, err
	}
	return d.classifier.ClassifyLogin(state), nil
}

// WaitForApproval polls the page until the push challenge resolves or maxWait
// elapses. A still-pending challenge is not an error; the caller polls again
// later.
func (d *Driver) WaitForApproval(ctx context.Context, maxWait time.Duration) (ApprovalResult, error) {
	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		state, err := d.snapshot()
		if err != nil {
			return ApprovalResult{}, err
		}
		result := d.classifier.ClassifyApproval(state)
		if result.Outcome != ApprovalPending || !time.Now().Add(d.cfg.PollInterval).Before(deadline) {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return ApprovalResult{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cleanup closes the session's page. Safe to call more than once and after
// errors at any stage.
func (d *Driver) Cleanup() {
	d.closeOnce.Do(func() {
		_ = d.page.Close()
	})
}

func (d *Driver) fillAndSubmit(selector, value string) error {
	scope := d.page.Timeout(d.cfg.InteractionTimeout)

	field, err := scope.Element(selector)
	if err != nil {
		return err
	}
	if err := field.Input(value); err != nil {
		return err
	}

	submit, err := scope.Element(d.cfg.SubmitSelector)
	if err != nil {
		return err
	}
	return submit.Click(proto.InputMouseButtonLeft, 1)
}

// settle waits out redirects and script-driven rerenders before snapshotting.
func (d *Driver) settle(ctx context.Context) (PageState, error) {
	select {
	case <-ctx.Done():
		return PageState{}, ctx.Err()
	case <-time.After(d.cfg.SettleDelay):
	}
	if err := d.page.Timeout(d.cfg.NavigationTimeout).WaitLoad(); err != nil {
		return PageState{}, err
	}
	return d.snapshot()
}

func (d *Driver) snapshot() (PageState, error) {
	info, err := d.page.Info()
	if err != nil {
		return PageState{}, err
	}
	html, err := d.page.HTML()
	if err != nil {
		return PageState{}, err
	}
	return PageState{URL: info.URL, HTML: html}, nil
}
