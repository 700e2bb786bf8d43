// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tracescore/internal/config"
)

// ErrElementNotFound is returned when a selector matches nothing on the current page.
var ErrElementNotFound = errors.New("element not found")

const (
	defaultNavigationTimeout = 90 * time.Second
	defaultActionTimeout     = 30 * time.Second
	defaultCloseTimeout      = 10 * time.Second
)

// Session is a single Chrome tab driven over CDP. It is not safe for concurrent use;
// every action is awaited before the next is issued.
type Session struct {
	id          string
	ctx         context.Context // carries the CDP target
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
	logger      *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// RunActions executes chromedp actions against the session's tab, bounded by ctx.
// Context errors take priority over CDP errors.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.ctx.Err() != nil {
			return fmt.Errorf("browser session closed: %w", s.ctx.Err())
		}
		return err
	}
	return nil
}

// Navigate loads url and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	timeout := orDefault(s.cfg.NavigationTimeout, defaultNavigationTimeout)
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("Navigating.", zap.String("url", url))
	err := s.RunActions(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("navigation to %s timed out after %v: %w", url, timeout, err)
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Click presses the element matched by selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	return s.withElement(ctx, selector, "click", chromedp.Click(selector, chromedp.ByQuery))
}

// UploadFile sets path as the selected file of the file input matched by selector.
// The page receives the usual input/change events.
func (s *Session) UploadFile(ctx context.Context, selector, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve upload path %s: %w", path, err)
	}
	return s.withElement(ctx, selector, "upload",
		chromedp.SetUploadFiles(selector, []string{abs}, chromedp.ByQuery))
}

// TextContent returns the textContent of the element matched by selector.
func (s *Session) TextContent(ctx context.Context, selector string) (string, error) {
	var text string
	err := s.withElement(ctx, selector, "read", chromedp.TextContent(selector, &text, chromedp.ByQuery))
	return text, err
}

// withElement fails fast with ErrElementNotFound when selector matches nothing, instead
// of letting the query action wait for the element until the timeout.
func (s *Session) withElement(ctx context.Context, selector, op string, action chromedp.Action) error {
	timeout := orDefault(s.cfg.ActionTimeout, defaultActionTimeout)
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := s.RunActions(opCtx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return fmt.Errorf("%s %s: %w", op, selector, err)
	}
	if len(nodes) == 0 {
		return fmt.Errorf("%s %s: %w", op, selector, ErrElementNotFound)
	}

	if err := s.RunActions(opCtx, action); err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s %s timed out after %v: %w", op, selector, timeout, err)
		}
		return fmt.Errorf("%s %s: %w", op, selector, err)
	}
	s.logger.Debug("Action complete.", zap.String("op", op), zap.String("selector", selector))
	return nil
}

// Close shuts the browser down gracefully and then releases the process. It is safe to
// call more than once and works even after the run context was cancelled.
func (s *Session) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		s.logger.Info("Closing browser session.")

		closeCtx, cancel := context.WithTimeout(Detach(s.ctx), orDefault(s.cfg.CloseTimeout, defaultCloseTimeout))
		defer cancel()

		if err := chromedp.Cancel(closeCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("Graceful browser shutdown failed; killing process.", zap.Error(err))
			s.closeErr = err
		}
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
