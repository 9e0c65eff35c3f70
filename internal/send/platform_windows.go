//go:build windows

package send

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procGetForegroundWindow       = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId  = user32.NewProc("GetWindowThreadProcessId")
	procSendInput                 = user32.NewProc("SendInput")
	procQueryFullProcessImageName = kernel32.NewProc("QueryFullProcessImageNameW")
)

type winInspector struct{}

// NewForegroundInspector returns the Windows foreground-window inspector.
func NewForegroundInspector() ForegroundInspector { return winInspector{} }

func (winInspector) ForegroundProcess() (string, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return "", fmt.Errorf("no foreground window")
	}
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return "", fmt.Errorf("no process for foreground window")
	}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	r, _, callErr := procQueryFullProcessImageName.Call(
		uintptr(h), 0,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
	)
	if r == 0 {
		return "", fmt.Errorf("query process image name: %w", callErr)
	}
	return windows.UTF16ToString(buf[:size]), nil
}

const (
	vkControl = 0x11
	vkV       = 0x56

	inputKeyboard  = 1
	keyEventfKeyUp = 0x0002
)

// keybdInput mirrors KEYBDINPUT; input mirrors INPUT with the union padded
// to the MOUSEINPUT size so the struct layout matches the Win32 ABI on
// 64-bit builds.
type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	_         uint32
	ki        keybdInput
	_         [8]byte
}

type winPaster struct{}

// NewPaster returns the Windows paste trigger (synthesized Ctrl+V).
func NewPaster() Paster { return winPaster{} }

func (winPaster) Paste() error {
	seq := []input{
		{inputType: inputKeyboard, ki: keybdInput{wVk: vkControl}},
		{inputType: inputKeyboard, ki: keybdInput{wVk: vkV}},
		{inputType: inputKeyboard, ki: keybdInput{wVk: vkV, dwFlags: keyEventfKeyUp}},
		{inputType: inputKeyboard, ki: keybdInput{wVk: vkControl, dwFlags: keyEventfKeyUp}},
	}
	n, _, callErr := procSendInput.Call(
		uintptr(len(seq)),
		uintptr(unsafe.Pointer(&seq[0])),
		unsafe.Sizeof(seq[0]),
	)
	if int(n) != len(seq) {
		return fmt.Errorf("send paste keystroke: %w", callErr)
	}
	return nil
}
