// Package clipboard wraps the native system clipboard behind a small
// interface. Build constraints select the implementation:
//
//	clipboard_windows.go — Win32 user32/kernel32 via golang.org/x/sys
//	clipboard_other.go   — golang.design/x/clipboard, registered formats
//	                       held in-process; in-memory fallback when no
//	                       display is available
//	memory.go            — pure in-memory backend, used by tests and the
//	                       headless fallback
//
// The clipboard is a process-wide exclusive resource: Open acquires it with
// bounded retry and every Open must be paired with Close on all exit paths.
// Read and write operations assume the clipboard is open.
package clipboard

import (
	"context"
	"errors"
	"time"
)

// Format is a process-lifetime-stable clipboard format id. Predefined ids
// use the Win32 CF_* values on every backend so snapshots stay portable
// across the package.
type Format uint32

const (
	FmtText        Format = 1  // CF_TEXT, ANSI
	FmtBitmap      Format = 2  // CF_BITMAP
	FmtOEMText     Format = 7  // CF_OEMTEXT
	FmtUnicodeText Format = 13 // CF_UNICODETEXT, UTF-16LE
	FmtHDrop       Format = 15 // CF_HDROP, file name list
)

// Well-known registered format names.
const (
	NameRTF  = "Rich Text Format"
	NameHTML = "HTML Format"
	NameCSV  = "Csv"
	NameTSV  = "Tab Separated Values"
)

// firstRegistered is the lowest id handed out for registered format names,
// matching the Win32 registered-format range.
const firstRegistered Format = 0xC000

// ErrNotOpen is returned by operations that require the clipboard to have
// been acquired with Open first.
var ErrNotOpen = errors.New("clipboard: not open")

// ErrSnapshotRestored is returned when a snapshot is restored twice.
var ErrSnapshotRestored = errors.New("clipboard: snapshot already restored")

// OpError wraps a failed native clipboard operation.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return "clipboard: " + e.Op + ": " + e.Err.Error() }
func (e *OpError) Unwrap() error { return e.Err }

// Clipboard is the interface all backends satisfy.
type Clipboard interface {
	// Name returns a human-readable backend name.
	Name() string

	// Open acquires the clipboard, retrying up to attempts times with delay
	// between tries. Exhausting the attempts returns an *OpError. Every
	// successful Open must be paired with Close.
	Open(ctx context.Context, attempts int, delay time.Duration) error

	// Close releases the clipboard.
	Close()

	// Register returns the stable id for a named format, registering it on
	// first use. Registering the same name again returns the same id.
	Register(name string) (Format, error)

	// Get returns the raw bytes stored under f, or nil if the format is
	// absent — absence is not an error.
	Get(f Format) ([]byte, error)

	// Set stores raw bytes under f, replacing any previous value for f.
	Set(f Format, data []byte) error

	// SetText places s on the clipboard in the platform's native text
	// encoding (UTF-16 CF_UNICODETEXT on Windows).
	SetText(s string) error

	// Text returns the clipboard's plain text content, or "" if absent.
	Text() (string, error)

	// Clear empties the clipboard of all formats.
	Clear() error

	// Wait polls until the clipboard is free of other holders, or the
	// timeout elapses. Returns false on timeout.
	Wait(timeout time.Duration) bool

	// Snapshot captures all clipboard formats for later restoration.
	Snapshot() (*Snapshot, error)

	// Restore writes a snapshot back. A snapshot restores exactly once;
	// a second attempt returns ErrSnapshotRestored.
	Restore(s *Snapshot) error
}

// Entry is one captured format inside a Snapshot. Name is non-empty for
// registered formats so a snapshot survives re-registration.
type Entry struct {
	Format Format
	Name   string
	Data   []byte
}

// Snapshot is a complete capture of the clipboard at a point in time.
type Snapshot struct {
	taken    time.Time
	entries  []Entry
	restored bool
}

// Taken returns when the snapshot was captured.
func (s *Snapshot) Taken() time.Time { return s.taken }

// Len returns the number of captured formats.
func (s *Snapshot) Len() int { return len(s.entries) }

// consume marks the snapshot restored, failing if it already was.
func (s *Snapshot) consume() error {
	if s.restored {
		return ErrSnapshotRestored
	}
	s.restored = true
	return nil
}
