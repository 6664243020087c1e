// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"time"

	"applyflow/internal/common/config"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Page is the browser surface one submission attempt drives. All calls are
// strictly sequential; a Page is never shared across attempts.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Upload(ctx context.Context, selector, filePath string) error
	Text(ctx context.Context, selector string) (string, error)
	HTML(ctx context.Context) (string, error)
	Location(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close()
}

// Manager owns the shared headless Chrome allocator. Each attempt gets its
// own tab via NewPage; the pool above bounds how many exist at once.
type Manager struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
}

func NewManager(ctx context.Context, cfg config.BrowserConfig) *Manager {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)

	return &Manager{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		cfg:         cfg,
	}
}

// NewPage opens a fresh tab for one attempt.
func (m *Manager) NewPage(ctx context.Context) (Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)

	// Some boards pop a native confirm dialog on submit. Nobody is there to
	// click it, so accept automatically.
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			go func() {
				_ = chromedp.Run(tabCtx, page.HandleJavaScriptDialog(true))
			}()
		}
	})

	// Abandoning the caller context tears the tab down too.
	stop := context.AfterFunc(ctx, tabCancel)

	// Force Chrome to start now so a broken binary fails the attempt here,
	// not mid-form.
	startCtx, cancel := context.WithTimeout(tabCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		stop()
		tabCancel()
		return nil, fmt.Errorf("browser start: %w", err)
	}

	return &Session{
		ctx:           tabCtx,
		cancel:        tabCancel,
		stopAfterFunc: stop,
		navTimeout:    config.GetDuration(m.cfg.NavigationTimeout),
		actionTimeout: config.GetDuration(m.cfg.ActionTimeout),
	}, nil
}

func (m *Manager) Shutdown() {
	m.allocCancel()
}

// Session drives a single Chrome tab.
type Session struct {
	ctx           context.Context
	cancel        context.CancelFunc
	stopAfterFunc func() bool
	navTimeout    time.Duration
	actionTimeout time.Duration
}

// run executes actions on the tab, bounded by timeout and cancelled when the
// caller's context is.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, s.navTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *Session) Fill(ctx context.Context, selector, value string) error {
	return s.run(ctx, s.actionTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, value, chromedp.ByQuery),
	)
}

func (s *Session) Click(ctx context.Context, selector string) error {
	return s.run(ctx, s.actionTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

func (s *Session) Upload(ctx context.Context, selector, filePath string) error {
	return s.run(ctx, s.actionTimeout,
		chromedp.SetUploadFiles(selector, []string{filePath}, chromedp.ByQuery),
	)
}

func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var out string
	err := s.run(ctx, s.actionTimeout,
		chromedp.Text(selector, &out, chromedp.ByQuery),
	)
	return out, err
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.actionTimeout,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	err := s.run(ctx, s.actionTimeout, chromedp.Location(&url))
	return url, err
}

// Screenshot captures the full page.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, s.actionTimeout, chromedp.FullScreenshot(&buf, 90))
	return buf, err
}

func (s *Session) Close() {
	s.stopAfterFunc()
	s.cancel()
}
