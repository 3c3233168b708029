package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Runner executes an external command.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Desktop shows alerts through notify-send on Linux and osascript on macOS.
type Desktop struct {
	appName string
	goos    string
	run     Runner
}

func NewDesktop(appName string) *Desktop {
	return &Desktop{appName: appName, goos: runtime.GOOS, run: execRunner}
}

func newDesktopFor(appName, goos string, run Runner) *Desktop {
	return &Desktop{appName: appName, goos: goos, run: run}
}

func (d *Desktop) Notify(ctx context.Context, n Notification) error {
	return d.send(ctx, n, "normal")
}

func (d *Desktop) FullScreen(ctx context.Context, a Alert) error {
	n := a.Notification
	if a.Header != "" {
		n.Title = a.Header + ": " + n.Title
	}
	return d.send(ctx, n, "critical")
}

func (d *Desktop) send(ctx context.Context, n Notification, urgency string) error {
	switch d.goos {
	case "linux":
		args := []string{"-a", d.appName, "-u", urgency}
		if n.Sound != "" {
			args = append(args, "--hint=string:sound-file:"+n.Sound)
		}
		args = append(args, n.Title, n.Content)
		if err := d.run(ctx, "notify-send", args...); err != nil {
			return fmt.Errorf("notify-send: %w", err)
		}
		return nil
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Content), escapeAppleScript(n.Title))
		if urgency == "critical" {
			script = fmt.Sprintf(`display alert "%s" message "%s"`, escapeAppleScript(n.Title), escapeAppleScript(n.Content))
		}
		if err := d.run(ctx, "osascript", "-e", script); err != nil {
			return fmt.Errorf("osascript: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, d.goos)
	}
}

func escapeAppleScript(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}
