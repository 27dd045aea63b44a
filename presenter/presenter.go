// Package presenter surfaces notifications locally: as log lines or in the
// desktop notification tray.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shourya0523/Pact-sub000/utils"
)

// ErrUnsupportedPlatform is returned by DesktopPresenter on systems without a
// known notification command.
var ErrUnsupportedPlatform = errors.New("desktop notifications are not supported on this platform")

// Presenter shows one notification. Implementations must be safe for concurrent use.
type Presenter interface {
	Present(ctx context.Context, title, body string, data map[string]interface{}) error
}

// LogPresenter writes each notification as a structured log line.
type LogPresenter struct {
	log *utils.LoggerWithContext
}

// NewLogPresenter creates a LogPresenter. A nil logger uses the global one.
func NewLogPresenter(logger *utils.Logger) *LogPresenter {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &LogPresenter{log: logger.WithSource("presenter")}
}

// Present implements Presenter.
func (p *LogPresenter) Present(_ context.Context, title, body string, data map[string]interface{}) error {
	fields := map[string]interface{}{
		"title": title,
		"body":  body,
	}
	if len(data) > 0 {
		fields["data"] = data
	}
	p.log.Info("Notification", fields)
	return nil
}

// CommandRunner runs an external command to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// DesktopPresenter shows notifications with notify-send on Linux and
// osascript on macOS.
type DesktopPresenter struct {
	appName string
	goos    string
	run     CommandRunner
}

// DesktopOption customizes a DesktopPresenter.
type DesktopOption func(*DesktopPresenter)

// WithRunner replaces the command runner.
func WithRunner(run CommandRunner) DesktopOption {
	return func(p *DesktopPresenter) { p.run = run }
}

// WithGOOS overrides the detected operating system.
func WithGOOS(goos string) DesktopOption {
	return func(p *DesktopPresenter) { p.goos = goos }
}

// NewDesktopPresenter creates a DesktopPresenter labelled appName.
func NewDesktopPresenter(appName string, opts ...DesktopOption) *DesktopPresenter {
	p := &DesktopPresenter{
		appName: appName,
		goos:    runtime.GOOS,
		run:     execRunner,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Supported reports whether the platform has a notification command.
func (p *DesktopPresenter) Supported() bool {
	return p.goos == "linux" || p.goos == "darwin"
}

// Present implements Presenter.
func (p *DesktopPresenter) Present(ctx context.Context, title, body string, _ map[string]interface{}) error {
	switch p.goos {
	case "linux":
		// "--" keeps a title or body starting with "-" from being read as an option.
		return p.run(ctx, "notify-send", "--app-name", p.appName, "--", title, body)
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleScriptString(body), appleScriptString(title))
		return p.run(ctx, "osascript", "-e", script)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p.goos)
	}
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// MultiPresenter presents through every wrapped presenter.
type MultiPresenter []Presenter

// Present implements Presenter. Every presenter runs even if an earlier one fails.
func (m MultiPresenter) Present(ctx context.Context, title, body string, data map[string]interface{}) error {
	var errs []error
	for _, p := range m {
		if err := p.Present(ctx, title, body, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
