//go:build !windows

package send

import (
	"fmt"
	"os/exec"
	"runtime"
)

type nopInspector struct{}

// NewForegroundInspector returns an inspector that reports the foreground
// process as unknown; target-aware routing is a Windows feature.
func NewForegroundInspector() ForegroundInspector { return nopInspector{} }

func (nopInspector) ForegroundProcess() (string, error) { return "", nil }

type execPaster struct{}

// NewPaster returns a paste trigger backed by the platform's keystroke tool.
func NewPaster() Paster { return execPaster{} }

func (execPaster) Paste() error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("osascript", "-e",
			`tell application "System Events" to keystroke "v" using command down`).Run()
	default:
		// Linux and friends: try the common synthesizers in order.
		if _, err := exec.LookPath("xdotool"); err == nil {
			return exec.Command("xdotool", "key", "--clearmodifiers", "ctrl+v").Run()
		}
		if _, err := exec.LookPath("wtype"); err == nil {
			return exec.Command("wtype", "-M", "ctrl", "-k", "v", "-m", "ctrl").Run()
		}
		if _, err := exec.LookPath("ydotool"); err == nil {
			return exec.Command("ydotool", "key", "29:1", "47:1", "47:0", "29:0").Run()
		}
		return fmt.Errorf("no keystroke tool found (install xdotool, wtype, or ydotool)")
	}
}
