package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	appLog "hijrical/internal/log"
)

const DefaultBrowserTimeout = 30 * time.Second

// Browser fetches pages through a headless Chromium instance and returns
// the rendered document's outer HTML. Use it for source pages that build
// their calendar tables with script.
type Browser struct {
	// Timeout bounds a whole navigation. Zero means DefaultBrowserTimeout.
	Timeout time.Duration
	// WaitSelector, when set, is waited for before the HTML is read.
	WaitSelector string
	// Settle is an extra delay after load for late DOM updates.
	Settle time.Duration
}

// Get implements Getter.
func (b Browser) Get(parentCtx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("browser: URL is required")
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
	defer timeoutCancel()

	var html string
	tasks := chromedp.Tasks{chromedp.Navigate(rawURL)}
	if b.WaitSelector != "" {
		tasks = append(tasks, chromedp.WaitReady(b.WaitSelector, chromedp.ByQuery))
	}
	if b.Settle > 0 {
		tasks = append(tasks, chromedp.Sleep(b.Settle))
	}
	tasks = append(tasks, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	appLog.Debug("browser fetch start", "url", redactURL(rawURL))
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("browser: chromedp run failed: %w", err)
	}
	appLog.Info("browser fetch success", "url", redactURL(rawURL), "bytes", len(html))
	return []byte(html), nil
}
