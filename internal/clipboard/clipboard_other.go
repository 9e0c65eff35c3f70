//go:build !windows

package clipboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	xclip "golang.design/x/clipboard"
)

// portableClipboard bridges the Clipboard interface onto
// golang.design/x/clipboard. Only plain text reaches the OS clipboard; the
// library cannot express registered formats, so RTF/HTML/CSV payloads are
// held in an in-process store alongside the text. That keeps rich round
// trips working within the process and degrades to plain text for everything
// outside it.
type portableClipboard struct {
	mu    sync.Mutex
	rich  map[Format][]byte
	names map[string]Format
	next  Format
}

var initOnce sync.Once
var initErr error

// System returns the platform clipboard, or the in-memory fallback when no
// display server is available (headless hosts, CI).
func System() Clipboard {
	initOnce.Do(func() { initErr = xclip.Init() })
	if initErr != nil {
		slog.Warn("clipboard unavailable, using in-memory store", "err", initErr)
		m := NewMemory()
		m.open = true // no OS-level exclusivity to model
		return m
	}
	return &portableClipboard{
		rich:  make(map[Format][]byte),
		names: make(map[string]Format),
		next:  firstRegistered,
	}
}

func (c *portableClipboard) Name() string { return "portable clipboard (text only)" }

// Open is bookkeeping only: golang.design/x/clipboard serializes access
// internally, so there is no OS handle to acquire.
func (c *portableClipboard) Open(_ context.Context, _ int, _ time.Duration) error { return nil }

func (c *portableClipboard) Close() {}

func (c *portableClipboard) Register(name string) (Format, error) {
	if name == "" {
		return 0, &OpError{Op: "register", Err: errors.New("empty format name")}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.names[name]; ok {
		return f, nil
	}
	f := c.next
	c.next++
	c.names[name] = f
	return f, nil
}

func (c *portableClipboard) Get(f Format) ([]byte, error) {
	if f == FmtText || f == FmtUnicodeText {
		return xclip.Read(xclip.FmtText), nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.rich[f]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (c *portableClipboard) Set(f Format, data []byte) error {
	if f == FmtText || f == FmtUnicodeText {
		xclip.Write(xclip.FmtText, data)
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	c.rich[f] = stored
	return nil
}

func (c *portableClipboard) SetText(s string) error {
	xclip.Write(xclip.FmtText, []byte(s))
	return nil
}

func (c *portableClipboard) Text() (string, error) {
	return string(xclip.Read(xclip.FmtText)), nil
}

func (c *portableClipboard) Clear() error {
	c.mu.Lock()
	c.rich = make(map[Format][]byte)
	c.mu.Unlock()
	xclip.Write(xclip.FmtText, nil)
	return nil
}

func (c *portableClipboard) Wait(_ time.Duration) bool { return true }

func (c *portableClipboard) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{taken: time.Now()}
	if text := xclip.Read(xclip.FmtText); len(text) > 0 {
		snap.entries = append(snap.entries, Entry{Format: FmtUnicodeText, Data: text})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	byID := make(map[Format]string, len(c.names))
	for name, f := range c.names {
		byID[f] = name
	}
	for f, data := range c.rich {
		entry := Entry{Format: f, Name: byID[f], Data: make([]byte, len(data))}
		copy(entry.Data, data)
		snap.entries = append(snap.entries, entry)
	}
	return snap, nil
}

func (c *portableClipboard) Restore(s *Snapshot) error {
	if err := s.consume(); err != nil {
		return err
	}
	if err := c.Clear(); err != nil {
		return err
	}
	for _, e := range s.entries {
		f := e.Format
		if e.Name != "" {
			if reg, err := c.Register(e.Name); err == nil {
				f = reg
			}
		}
		if err := c.Set(f, e.Data); err != nil {
			return err
		}
	}
	return nil
}
