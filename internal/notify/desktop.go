package notify

import (
	"os/exec"
	"runtime"
)

// DesktopNotifier shows OS desktop notifications
type DesktopNotifier struct {
	enabled bool
}

// NewDesktopNotifier creates a new desktop notifier
func NewDesktopNotifier(enabled bool) *DesktopNotifier {
	return &DesktopNotifier{enabled: enabled}
}

// Send shows the notification if the platform supports it
func (d *DesktopNotifier) Send(n Notification) error {
	if !d.enabled {
		return nil
	}

	switch runtime.GOOS {
	case "darwin":
		script := `display notification "` + n.Message + `" with title "` + n.Title + `"`
		return exec.Command("osascript", "-e", script).Run()
	case "linux":
		return exec.Command("notify-send", n.Title, n.Message).Run()
	default:
		return nil
	}
}
