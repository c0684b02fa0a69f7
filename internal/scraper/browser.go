package scraper

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Renderer starts a headless browser session scoped to one request.
type Renderer interface {
	Open(ctx context.Context) (Session, error)
}

// Session renders pages. Close must be called exactly once, on every path.
type Session interface {
	Render(ctx context.Context, pageURL string) (string, error)
	Close() error
}

// RodRenderer opens one isolated Chrome session per request through rod.
type RodRenderer struct {
	NavTimeout  time.Duration
	SettleDelay time.Duration
	NoSandbox   bool
	// RemoteURL connects to an already running Chrome instead of launching one.
	RemoteURL string
	UserAgent string
}

// Open starts a browser session. Locally it launches a private Chrome; with
// RemoteURL it opens an incognito context on the shared instance.
func (r *RodRenderer) Open(ctx context.Context) (Session, error) {
	var (
		browser *rod.Browser
		release func() error
		err     error
	)
	if r.RemoteURL != "" {
		browser, release, err = openRemote(ctx, r.RemoteURL)
	} else {
		browser, release, err = openLocal(ctx, r.NoSandbox)
	}
	if err != nil {
		return nil, err
	}

	navTimeout := r.NavTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	ua := r.UserAgent
	if ua == "" {
		ua = BrowserUserAgent
	}

	return &rodSession{
		browser:    browser,
		release:    release,
		navTimeout: navTimeout,
		settle:     r.SettleDelay,
		userAgent:  ua,
	}, nil
}

func openLocal(ctx context.Context, noSandbox bool) (*rod.Browser, func() error, error) {
	l := launcher.New().Context(ctx).Headless(true).NoSandbox(noSandbox)
	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, nil, eris.Wrap(err, "scraper: launch browser")
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, nil, eris.Wrap(err, "scraper: connect browser")
	}
	return browser, localRelease(browser, l), nil
}

func openRemote(ctx context.Context, remoteURL string) (*rod.Browser, func() error, error) {
	u, err := launcher.ResolveURL(remoteURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "scraper: resolve remote browser")
	}
	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, u, nil); err != nil {
		return nil, nil, eris.Wrap(err, "scraper: connect browser")
	}

	browser := rod.New().Client(cdp.New().Start(ws))
	if err := browser.Connect(); err != nil {
		_ = ws.Close()
		return nil, nil, eris.Wrap(err, "scraper: connect browser")
	}
	incognito, err := browser.Incognito()
	if err != nil {
		_ = ws.Close()
		return nil, nil, eris.Wrap(err, "scraper: open browser context")
	}
	return incognito, remoteRelease(incognito, ws), nil
}

// browserProcess is the part of a launcher that owns the Chrome process.
type browserProcess interface {
	Kill()
	Cleanup()
}

// localRelease shuts the private browser down and removes its process and
// profile directory.
func localRelease(browser io.Closer, proc browserProcess) func() error {
	return func() error {
		err := browser.Close()
		proc.Kill()
		proc.Cleanup()
		return err
	}
}

// remoteRelease disposes of the session's browser context and drops the
// connection. The shared browser keeps running.
func remoteRelease(browserContext, conn io.Closer) func() error {
	return func() error {
		err := browserContext.Close()
		if cerr := conn.Close(); err == nil {
			err = cerr
		}
		return err
	}
}

type rodSession struct {
	browser    *rod.Browser
	release    func() error
	navTimeout time.Duration
	settle     time.Duration
	userAgent  string

	closeOnce sync.Once
	closeErr  error
}

// Render navigates, waits for DOMContentLoaded plus the settle delay, and
// returns the rendered document.
func (s *rodSession) Render(ctx context.Context, pageURL string) (string, error) {
	page, err := stealth.Page(s.browser)
	if err != nil {
		return "", eris.Wrap(err, "scraper: open page")
	}

	err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      s.userAgent,
		AcceptLanguage: "ko-KR",
	})
	if err != nil {
		zap.L().Warn("scraper: set user agent failed", zap.Error(err))
	}

	navCtx, cancel := context.WithTimeout(ctx, s.navTimeout)
	defer cancel()
	nav := page.Context(navCtx)

	wait := nav.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := nav.Navigate(pageURL); err != nil {
		return "", eris.Wrapf(err, "scraper: navigate %s", pageURL)
	}
	wait()
	if err := navCtx.Err(); err != nil {
		return "", eris.Wrapf(err, "scraper: navigate %s", pageURL)
	}

	if s.settle > 0 {
		t := time.NewTimer(s.settle)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", eris.Wrap(ctx.Err(), "scraper: settle")
		case <-t.C:
		}
	}

	html, err := page.Context(ctx).HTML()
	if err != nil {
		return "", eris.Wrap(err, "scraper: read rendered html")
	}
	return html, nil
}

// Close releases the session's browser resources. Repeated calls are no-ops.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = eris.Wrap(s.release(), "scraper: close browser")
	})
	return s.closeErr
}
