package accountlink

import (
	"context"
	"time"

	"github.com/nittanyapp/accountlink/browser"
)

// LoginDriver is the engine's view of one browser login session. The
// production implementation is [browser.Driver]; tests substitute fakes.
//
// A driver is bound to a single linking session. Cleanup must be safe to call
// multiple times and releases the underlying page.
type LoginDriver interface {
	Login(ctx context.Context, username, password string) (browser.LoginResult, error)
	WaitForApproval(ctx context.Context, maxWait time.Duration) (browser.ApprovalResult, error)
	Cleanup()
}

// DriverFactory creates one driver per linking session. The production
// implementation is [browser.Launcher], which shares a browser process across
// sessions while isolating each one in an incognito context.
type DriverFactory interface {
	NewDriver(ctx context.Context) (LoginDriver, error)
}

// launcherFactory adapts [browser.Launcher] to [DriverFactory].
type launcherFactory struct {
	launcher *browser.Launcher
}

// NewBrowserDriverFactory wraps a [browser.Launcher] for use with
// [Builder.WithDriverFactory].
func NewBrowserDriverFactory(l *browser.Launcher) DriverFactory {
	return &launcherFactory{launcher: l}
}

func (f *launcherFactory) NewDriver(ctx context.Context) (LoginDriver, error) {
	d, err := f.launcher.NewDriver(ctx)
	if err != nil {
		return nil, err
	}
	return d, nil
}
