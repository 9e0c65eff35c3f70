//go:build windows

package clipboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenClipboard            = user32.NewProc("OpenClipboard")
	procCloseClipboard           = user32.NewProc("CloseClipboard")
	procEmptyClipboard           = user32.NewProc("EmptyClipboard")
	procRegisterClipboardFormatW = user32.NewProc("RegisterClipboardFormatW")
	procGetClipboardData         = user32.NewProc("GetClipboardData")
	procSetClipboardData         = user32.NewProc("SetClipboardData")
	procEnumClipboardFormats     = user32.NewProc("EnumClipboardFormats")
	procIsClipboardFormatAvail   = user32.NewProc("IsClipboardFormatAvailable")
	procGetClipboardFormatNameW  = user32.NewProc("GetClipboardFormatNameW")
	procGetOpenClipboardWindow   = user32.NewProc("GetOpenClipboardWindow")

	procGlobalAlloc  = kernel32.NewProc("GlobalAlloc")
	procGlobalFree   = kernel32.NewProc("GlobalFree")
	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
	procGlobalSize   = kernel32.NewProc("GlobalSize")
)

const gmemMoveable = 0x0002

// Formats whose handles are not HGLOBAL and cannot be copied byte-wise.
// Snapshots skip them.
const (
	cfMetafilePict = 3
	cfEnhMetafile  = 14
	cfOwnerDisplay = 0x0080
	cfDSPFirst     = 0x0081
	cfDSPLast      = 0x008F
)

// globalBuf is a scoped guard for a moveable global memory handle destined
// for the clipboard. Ownership transfers to the OS when SetClipboardData
// succeeds; free releases the handle on every other path and is a no-op
// after transfer.
type globalBuf struct {
	h           uintptr
	transferred bool
}

func allocGlobal(data []byte) (*globalBuf, error) {
	size := len(data)
	if size == 0 {
		size = 1
	}
	h, _, callErr := procGlobalAlloc.Call(gmemMoveable, uintptr(size))
	if h == 0 {
		return nil, &OpError{Op: "GlobalAlloc", Err: callErr}
	}
	g := &globalBuf{h: h}

	p, _, callErr := procGlobalLock.Call(h)
	if p == 0 {
		g.free()
		return nil, &OpError{Op: "GlobalLock", Err: callErr}
	}
	if len(data) > 0 {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), len(data)), data)
	}
	_, _, _ = procGlobalUnlock.Call(h)
	return g, nil
}

func (g *globalBuf) free() {
	if g.transferred || g.h == 0 {
		return
	}
	_, _, _ = procGlobalFree.Call(g.h)
	g.h = 0
}

type winClipboard struct {
	mu      sync.Mutex
	formats map[string]Format // registered name → id, cached per process
}

// System returns the native Windows clipboard.
func System() Clipboard {
	return &winClipboard{formats: make(map[string]Format)}
}

func (c *winClipboard) Name() string { return "Windows clipboard" }

func (c *winClipboard) Open(ctx context.Context, attempts int, delay time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		r, _, callErr := procOpenClipboard.Call(0)
		if r != 0 {
			return nil
		}
		lastErr = callErr
		select {
		case <-ctx.Done():
			return &OpError{Op: "open", Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
	return &OpError{Op: "open", Err: fmt.Errorf("after %d attempts: %w", attempts, lastErr)}
}

func (c *winClipboard) Close() {
	_, _, _ = procCloseClipboard.Call()
}

func (c *winClipboard) Register(name string) (Format, error) {
	if name == "" {
		return 0, &OpError{Op: "register", Err: errors.New("empty format name")}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.formats[name]; ok {
		return f, nil
	}
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, &OpError{Op: "register", Err: err}
	}
	r, _, callErr := procRegisterClipboardFormatW.Call(uintptr(unsafe.Pointer(p)))
	if r == 0 {
		return 0, &OpError{Op: "RegisterClipboardFormat", Err: callErr}
	}
	f := Format(r)
	c.formats[name] = f
	return f, nil
}

func (c *winClipboard) Get(f Format) ([]byte, error) {
	avail, _, _ := procIsClipboardFormatAvail.Call(uintptr(f))
	if avail == 0 {
		return nil, nil
	}
	h, _, callErr := procGetClipboardData.Call(uintptr(f))
	if h == 0 {
		return nil, &OpError{Op: "GetClipboardData", Err: callErr}
	}
	size, _, _ := procGlobalSize.Call(h)
	if size == 0 {
		return nil, nil
	}
	p, _, callErr := procGlobalLock.Call(h)
	if p == 0 {
		return nil, &OpError{Op: "GlobalLock", Err: callErr}
	}
	defer procGlobalUnlock.Call(h)

	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(p)), size))
	return out, nil
}

func (c *winClipboard) Set(f Format, data []byte) error {
	g, err := allocGlobal(data)
	if err != nil {
		return err
	}
	defer g.free() // no-op once ownership has transferred

	r, _, callErr := procSetClipboardData.Call(uintptr(f), g.h)
	if r == 0 {
		return &OpError{Op: "SetClipboardData", Err: callErr}
	}
	g.transferred = true
	return nil
}

func (c *winClipboard) SetText(s string) error {
	return c.Set(FmtUnicodeText, encodeUTF16LE(s))
}

func (c *winClipboard) Text() (string, error) {
	data, err := c.Get(FmtUnicodeText)
	if err != nil || len(data) == 0 {
		return "", err
	}
	return decodeUTF16LE(data), nil
}

func (c *winClipboard) Clear() error {
	r, _, callErr := procEmptyClipboard.Call()
	if r == 0 {
		return &OpError{Op: "EmptyClipboard", Err: callErr}
	}
	return nil
}

func (c *winClipboard) Wait(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		holder, _, _ := procGetOpenClipboardWindow.Call()
		if holder == 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(waitPollInterval)
	}
}

func (c *winClipboard) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{taken: time.Now()}
	var f uintptr
	for {
		f, _, _ = procEnumClipboardFormats.Call(f)
		if f == 0 {
			break
		}
		if !copyableFormat(uint32(f)) {
			continue
		}
		data, err := c.Get(Format(f))
		if err != nil {
			// Skip formats whose owner can't render right now; a partial
			// snapshot restores more than no snapshot.
			continue
		}
		snap.entries = append(snap.entries, Entry{
			Format: Format(f),
			Name:   formatName(uint32(f)),
			Data:   data,
		})
	}
	return snap, nil
}

func (c *winClipboard) Restore(s *Snapshot) error {
	if err := s.consume(); err != nil {
		return err
	}
	if err := c.Clear(); err != nil {
		return err
	}
	var firstErr error
	for _, e := range s.entries {
		f := e.Format
		if e.Name != "" {
			if reg, err := c.Register(e.Name); err == nil {
				f = reg
			}
		}
		if err := c.Set(f, e.Data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// copyableFormat reports whether a clipboard format's handle is HGLOBAL and
// safe to copy byte-wise.
func copyableFormat(f uint32) bool {
	switch f {
	case uint32(FmtBitmap), cfMetafilePict, cfEnhMetafile, cfOwnerDisplay:
		return false
	}
	if f >= cfDSPFirst && f <= cfDSPLast {
		return false
	}
	return true
}

// formatName returns the registered name for format ids in the registered
// range, or "" for predefined formats.
func formatName(f uint32) string {
	if f < uint32(firstRegistered) {
		return ""
	}
	buf := make([]uint16, 256)
	n, _, _ := procGetClipboardFormatNameW.Call(
		uintptr(f),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

// encodeUTF16LE converts s to UTF-16LE bytes with a trailing NUL, the layout
// CF_UNICODETEXT requires.
func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, (len(units)+1)*2)
	for _, u := range units {
		out = append(out, byte(u), byte(u>>8))
	}
	return append(out, 0, 0)
}

// decodeUTF16LE converts CF_UNICODETEXT bytes back to a string, stopping at
// the first NUL code unit.
func decodeUTF16LE(data []byte) string {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		u := uint16(data[i]) | uint16(data[i+1])<<8
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}
