package clipboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Memory is a pure in-memory Clipboard. It backs tests and the headless
// fallback on systems without a display server, and honors the same
// open/close and retry discipline as the native backends.
type Memory struct {
	mu    sync.Mutex
	open  bool
	data  map[Format][]byte
	names map[string]Format
	next  Format

	// holdFn, when set, simulates another process holding the clipboard:
	// Open retries while it reports true.
	holdFn func() bool
}

// NewMemory returns an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{
		data:  make(map[Format][]byte),
		names: make(map[string]Format),
		next:  firstRegistered,
	}
}

func (m *Memory) Name() string { return "in-memory" }

// SetHold installs a hook that reports whether an external holder owns the
// clipboard. Used by tests to exercise Open's bounded retry.
func (m *Memory) SetHold(fn func() bool) {
	m.mu.Lock()
	m.holdFn = fn
	m.mu.Unlock()
}

func (m *Memory) held() bool {
	m.mu.Lock()
	fn := m.holdFn
	m.mu.Unlock()
	return fn != nil && fn()
}

func (m *Memory) Open(ctx context.Context, attempts int, delay time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if !m.held() {
			m.mu.Lock()
			m.open = true
			m.mu.Unlock()
			return nil
		}
		select {
		case <-ctx.Done():
			return &OpError{Op: "open", Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
	return &OpError{Op: "open", Err: fmt.Errorf("held by another process after %d attempts", attempts)}
}

func (m *Memory) Close() {
	m.mu.Lock()
	m.open = false
	m.mu.Unlock()
}

func (m *Memory) Register(name string) (Format, error) {
	if name == "" {
		return 0, &OpError{Op: "register", Err: errors.New("empty format name")}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.names[name]; ok {
		return f, nil
	}
	f := m.next
	m.next++
	m.names[name] = f
	return f, nil
}

func (m *Memory) Get(f Format) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil, ErrNotOpen
	}
	data, ok := m.data[f]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Set(f Format, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return ErrNotOpen
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.data[f] = stored
	return nil
}

func (m *Memory) SetText(s string) error {
	return m.Set(FmtUnicodeText, []byte(s))
}

func (m *Memory) Text() (string, error) {
	data, err := m.Get(FmtUnicodeText)
	return string(data), err
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return ErrNotOpen
	}
	m.data = make(map[Format][]byte)
	return nil
}

func (m *Memory) Wait(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for m.held() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(waitPollInterval)
	}
	return true
}

func (m *Memory) Snapshot() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil, ErrNotOpen
	}
	byID := make(map[Format]string, len(m.names))
	for name, f := range m.names {
		byID[f] = name
	}
	snap := &Snapshot{taken: time.Now()}
	for f, data := range m.data {
		entry := Entry{Format: f, Name: byID[f], Data: make([]byte, len(data))}
		copy(entry.Data, data)
		snap.entries = append(snap.entries, entry)
	}
	return snap, nil
}

func (m *Memory) Restore(s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return ErrNotOpen
	}
	if err := s.consume(); err != nil {
		return err
	}
	m.data = make(map[Format][]byte, len(s.entries))
	for _, e := range s.entries {
		f := e.Format
		if e.Name != "" {
			// Re-resolve by name so restores stay correct even if ids were
			// assigned in a different order.
			if known, ok := m.names[e.Name]; ok {
				f = known
			} else {
				m.names[e.Name] = f
				if f >= m.next {
					m.next = f + 1
				}
			}
		}
		data := make([]byte, len(e.Data))
		copy(data, e.Data)
		m.data[f] = data
	}
	return nil
}

// waitPollInterval is the fixed poll period for Wait.
const waitPollInterval = 10 * time.Millisecond
