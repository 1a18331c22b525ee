package page

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"sjsage522/bestpick/helpers"
	apperrors "sjsage522/bestpick/pkg/errors"
)

// ChromedpSource renders pages with chromedp, one browser per load
type ChromedpSource struct {
	timeout time.Duration
	opts    []chromedp.ExecAllocatorOption
}

// NewChromedpSource creates a new chromedp page source
func NewChromedpSource(timeout time.Duration) *ChromedpSource {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
		chromedp.WindowSize(1280, 900),
	)
	return &ChromedpSource{timeout: timeout, opts: opts}
}

// Name returns the source name
func (s *ChromedpSource) Name() string {
	return "chromedp"
}

// Load navigates to target and returns the outer HTML of the document
func (s *ChromedpSource) Load(ctx context.Context, target string) (io.Reader, error) {
	if helpers.ParseBaseURL(target) == nil {
		return nil, apperrors.NewValidation(target, "target must be an absolute http(s) URL")
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, s.opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTask()

	if s.timeout > 0 {
		var cancelTimeout context.CancelFunc
		taskCtx, cancelTimeout = context.WithTimeout(taskCtx, s.timeout)
		defer cancelTimeout()
	}

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, apperrors.NewNetwork(target, "failed to render page", err)
	}

	return strings.NewReader(html), nil
}
