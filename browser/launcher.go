package browser

import (
	"context"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Launcher owns the shared browser process and hands out per-session drivers.
// The browser is launched on first use; every driver gets its own incognito
// context so sessions cannot see each other's cookies.
type Launcher struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	cleanup func()
}

// NewLauncher creates a launcher. No browser process is started until the
// first NewDriver call.
func NewLauncher(cfg Config) *Launcher {
	return &Launcher{cfg: cfg.withDefaults()}
}

func (l *Launcher) connect() (*rod.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser != nil {
		return l.browser, nil
	}

	controlURL := l.cfg.DebuggerURL
	if controlURL == "" {
		lc := launcher.New().Headless(!l.cfg.HeadfulDebug)
		if l.cfg.Bin != "" {
			lc = lc.Bin(l.cfg.Bin)
		}
		u, err := lc.Launch()
		if err != nil {
			return nil, err
		}
		controlURL = u
		l.cleanup = lc.Cleanup
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if l.cleanup != nil {
			l.cleanup()
			l.cleanup = nil
		}
		return nil, err
	}
	l.browser = b
	return b, nil
}

// NewDriver opens an isolated incognito page for one linking session.
func (l *Launcher) NewDriver(ctx context.Context) (*Driver, error) {
	b, err := l.connect()
	if err != nil {
		return nil, err
	}

	incognito, err := b.Incognito()
	if err != nil {
		return nil, err
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	return &Driver{
		cfg:        l.cfg,
		page:       page.Context(ctx),
		classifier: NewEntraClassifier(l.cfg.SuccessURLPrefix),
	}, nil
}

// Close disconnects from the browser and, when this launcher started it,
// kills the process. Drivers still holding pages become unusable.
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser == nil {
		return nil
	}
	err := l.browser.Close()
	if l.cleanup != nil {
		l.cleanup()
		l.cleanup = nil
	}
	l.browser = nil
	return err
}
