package page

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"sjsage522/bestpick/helpers"
	"sjsage522/bestpick/logger"
	apperrors "sjsage522/bestpick/pkg/errors"
)

// RodSource renders pages in a headless Chrome driven by rod.
// The browser is launched on first use and shared between loads.
type RodSource struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
	log      *logger.Logger
}

// NewRodSource creates a new rod page source
func NewRodSource(timeout time.Duration) *RodSource {
	return &RodSource{
		timeout: timeout,
		log:     logger.ForSource("rod"),
	}
}

// Name returns the source name
func (s *RodSource) Name() string {
	return "rod"
}

// Load navigates to target and returns the rendered HTML
func (s *RodSource) Load(ctx context.Context, target string) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if helpers.ParseBaseURL(target) == nil {
		return nil, apperrors.NewValidation(target, "target must be an absolute http(s) URL")
	}

	browser, err := s.ensureBrowser()
	if err != nil {
		return nil, apperrors.NewNetwork(target, "failed to launch browser", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, apperrors.NewNetwork(target, "failed to open page", err)
	}
	defer page.Close()

	// Stealth must be injected before navigation to take effect
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		s.log.Warn().Err(err).Msg("Stealth injection failed, proceeding without stealth")
	}

	page = page.Context(ctx)
	if s.timeout > 0 {
		page = page.Timeout(s.timeout)
		defer page.CancelTimeout()
	}

	if err := page.Navigate(target); err != nil {
		return nil, apperrors.NewNetwork(target, "navigation failed", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, apperrors.NewNetwork(target, "page did not finish loading", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, apperrors.NewStructure(target, "failed to read rendered HTML", err)
	}

	return strings.NewReader(html), nil
}

func (s *RodSource) ensureBrowser() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	l := launcher.New().Headless(true)
	u, err := l.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, err
	}

	s.browser = browser
	s.launcher = l
	s.log.Debug().Msg("Browser launched")
	return browser, nil
}

// Close shuts the browser down if it was launched
func (s *RodSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.launcher.Kill()
	s.browser = nil
	s.launcher = nil
	return err
}
