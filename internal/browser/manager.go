// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tracescore/internal/config"
)

const defaultLaunchTimeout = 60 * time.Second

// Manager launches browser processes. Each call to NewSession starts a dedicated
// Chrome instance with a single tab; there is no pooling.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

// NewManager creates a browser manager. No process is started until NewSession.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.Named("browser_manager"),
	}
}

// NewSession launches Chrome and opens a blank tab. The returned Session owns the
// process; callers must Close it.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	sessionID := uuid.New().String()
	log := m.logger.With(zap.String("session_id", sessionID))
	log.Info("Launching browser.", zap.Bool("headless", m.cfg.Headless), zap.String("exec_path", m.cfg.ExecPath))

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execAllocatorOptions(m.cfg)...)

	sugar := log.Named("cdp").Sugar()
	ctxOpts := []chromedp.ContextOption{
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	}
	if m.cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(sugar.Debugf))
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	// The first Run allocates the browser. It must not get a timeout context of its
	// own, since cancelling that context would kill the browser, so the launch budget
	// is enforced by cancelling the browser context instead.
	timeout := m.cfg.LaunchTimeout
	if timeout <= 0 {
		timeout = defaultLaunchTimeout
	}
	timer := time.AfterFunc(timeout, browserCancel)
	err := chromedp.Run(browserCtx)
	expired := !timer.Stop()

	if err != nil || expired {
		browserCancel()
		allocCancel()
		if expired {
			return nil, fmt.Errorf("browser launch timed out after %v", timeout)
		}
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	log.Info("Browser launched.")
	return &Session{
		id:          sessionID,
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		cfg:         m.cfg,
		logger:      log,
	}, nil
}

// execAllocatorOptions builds the Chrome command line from configuration. The list is
// explicit rather than based on chromedp.DefaultExecAllocatorOptions so that headless
// and sandbox handling follow the config.
func execAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("enable-automation", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
	}

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox, chromedp.Flag("disable-setuid-sandbox", true))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	// Extra flags: "--name=value" or "--name".
	for _, arg := range cfg.Args {
		arg = strings.TrimLeft(arg, "-")
		if arg == "" {
			continue
		}
		key, value, found := strings.Cut(arg, "=")
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}
