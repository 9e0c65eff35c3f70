// Package send delivers content to the focused application: back up the
// clipboard, write the best native format for the target, trigger a paste,
// and restore the original clipboard after a delay.
//
// A Sender owns the deferred restore timer. Overlapping Sends are resolved
// by dropping the superseded restore: a new Send cancels any pending restore
// before taking its own backup, so exactly one restore — the most recent —
// is ever outstanding.
package send

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/clipboard"
	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/format"
)

const (
	// OpenAttempts and OpenRetryDelay bound clipboard acquisition.
	OpenAttempts   = 5
	OpenRetryDelay = 50 * time.Millisecond

	// DefaultRestoreDelay gives the target application time to consume the
	// pasted content before the original clipboard returns.
	DefaultRestoreDelay = 500 * time.Millisecond

	// readyTimeout bounds the wait for the clipboard to be observably
	// populated before the paste keystroke fires.
	readyTimeout = 500 * time.Millisecond
)

// Converter is the subset of the conversion engine the pipeline needs.
// *convert.Engine satisfies it.
type Converter interface {
	ToHTML(ctx context.Context, content string) (string, error)
	ToRTF(ctx context.Context, content string) (string, error)
}

// ForegroundInspector reports the executable name of the process owning the
// foreground window, e.g. "msedge.exe". Empty means unknown.
type ForegroundInspector interface {
	ForegroundProcess() (string, error)
}

// Paster issues the platform paste action to the foreground application.
type Paster interface {
	Paste() error
}

// Options controls a single Send invocation.
type Options struct {
	// Restore backs up the clipboard before writing and schedules its
	// restoration after RestoreDelay.
	Restore bool

	// RestoreDelay overrides DefaultRestoreDelay when positive.
	RestoreDelay time.Duration
}

// Sender runs the send pipeline. Construct with New.
type Sender struct {
	clip   clipboard.Clipboard
	conv   Converter
	fg     ForegroundInspector
	paster Paster

	mu          sync.Mutex
	pending     *time.Timer
	pendingSnap *clipboard.Snapshot
	pendingDone chan struct{}
}

// New builds a Sender over the given collaborators.
func New(clip clipboard.Clipboard, conv Converter, fg ForegroundInspector, paster Paster) *Sender {
	return &Sender{clip: clip, conv: conv, fg: fg, paster: paster}
}

// browserProcs are foreground executables that render pasted HTML far more
// reliably than RTF.
var browserProcs = map[string]bool{
	"chrome":  true,
	"msedge":  true,
	"firefox": true,
	"brave":   true,
	"opera":   true,
	"vivaldi": true,
	"arc":     true,
	"safari":  true,
}

func isBrowser(proc string) bool {
	base := strings.ToLower(filepath.Base(proc))
	base = strings.TrimSuffix(base, ".exe")
	return browserProcs[base]
}

// Send delivers content to the foreground application. Within one call,
// backup strictly precedes mutation and mutation strictly precedes the paste
// trigger; on failure after backup, the original clipboard is restored
// immediately, best effort.
func (s *Sender) Send(ctx context.Context, content string, opts Options) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("send: empty content")
	}
	delay := opts.RestoreDelay
	if delay <= 0 {
		delay = DefaultRestoreDelay
	}

	// Drop any restore still pending from a previous call: its snapshot
	// predates the state we are about to back up.
	s.CancelRestore()

	if err := s.clip.Open(ctx, OpenAttempts, OpenRetryDelay); err != nil {
		return err
	}
	opened := true
	closeClip := func() {
		if opened {
			s.clip.Close()
			opened = false
		}
	}
	defer closeClip()

	var snap *clipboard.Snapshot
	if opts.Restore {
		var err error
		snap, err = s.clip.Snapshot()
		if err != nil {
			return fmt.Errorf("send: backup: %w", err)
		}
	}
	restoreNow := func() {
		if snap == nil {
			return
		}
		if err := s.clip.Restore(snap); err != nil {
			slog.Warn("clipboard restore after failure", "err", err)
		}
		snap = nil
	}

	if err := s.clip.Clear(); err != nil {
		restoreNow()
		return fmt.Errorf("send: clear: %w", err)
	}

	tag := format.Detect(content)
	text := NormalizeCRLF(content)

	readyFmt, err := s.write(ctx, tag, text)
	if err != nil {
		restoreNow()
		return err
	}
	closeClip()

	if !s.waitReady(ctx, readyFmt) {
		slog.Warn("clipboard not observably populated before paste", "format", readyFmt)
	}

	if err := s.paster.Paste(); err != nil {
		// The content is on the clipboard; the user can paste manually.
		// Still schedule the restore if one was requested.
		if snap != nil {
			s.schedule(snap, delay)
		}
		return fmt.Errorf("send: paste: %w", err)
	}

	if snap != nil {
		s.schedule(snap, delay)
	}
	return nil
}

// write places the best native representation of text on the (open)
// clipboard and returns the format id to poll for readiness. The markdown
// route writes a plain-text companion next to the RTF; content that is
// already RTF or HTML is written as-is, since deriving a plain rendering
// would need a conversion of its own.
func (s *Sender) write(ctx context.Context, tag format.Tag, text string) (clipboard.Format, error) {
	switch tag {
	case format.TagRTF:
		if s.foregroundIsBrowser() {
			html, err := s.conv.ToHTML(ctx, text)
			if err == nil {
				return s.writeHTML(html, "")
			}
			slog.Warn("rtf to html for browser target failed, pasting rtf", "err", err)
		}
		f, err := s.clip.Register(clipboard.NameRTF)
		if err != nil {
			return 0, err
		}
		if err := clipboard.SetRTF(s.clip, text); err != nil {
			return 0, err
		}
		return f, nil

	case format.TagHTML:
		return s.writeHTML(text, "")

	case format.TagMarkdown:
		rtf, err := s.conv.ToRTF(ctx, text)
		if err != nil {
			slog.Warn("markdown to rtf failed, pasting plain text", "err", err)
			return clipboard.FmtUnicodeText, s.clip.SetText(text)
		}
		f, err := s.clip.Register(clipboard.NameRTF)
		if err != nil {
			return 0, err
		}
		if err := clipboard.SetRTF(s.clip, rtf); err != nil {
			return 0, err
		}
		if err := s.clip.SetText(text); err != nil {
			return 0, err
		}
		return f, nil

	default:
		return clipboard.FmtUnicodeText, s.clip.SetText(text)
	}
}

func (s *Sender) writeHTML(html, plain string) (clipboard.Format, error) {
	f, err := s.clip.Register(clipboard.NameHTML)
	if err != nil {
		return 0, err
	}
	if err := clipboard.SetHTML(s.clip, html); err != nil {
		return 0, err
	}
	if plain != "" {
		if err := s.clip.SetText(plain); err != nil {
			return 0, err
		}
	}
	return f, nil
}

func (s *Sender) foregroundIsBrowser() bool {
	if s.fg == nil {
		return false
	}
	proc, err := s.fg.ForegroundProcess()
	if err != nil {
		slog.Debug("foreground process lookup failed", "err", err)
		return false
	}
	return isBrowser(proc)
}

// waitReady polls until the written format is readable, bounded by
// readyTimeout. The OS commits clipboard writes asynchronously; pasting
// before the commit races the keystroke against an empty clipboard.
func (s *Sender) waitReady(ctx context.Context, f clipboard.Format) bool {
	deadline := time.Now().Add(readyTimeout)
	for {
		if err := s.clip.Open(ctx, 1, 0); err == nil {
			data, err := s.clip.Get(f)
			s.clip.Close()
			if err == nil && len(data) > 0 {
				return true
			}
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// schedule arms the deferred restore for snap, replacing any timer still
// armed. The replaced timer's done channel is closed so no WaitRestore
// caller is left blocking on it.
func (s *Sender) schedule(snap *clipboard.Snapshot, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Stop()
		close(s.pendingDone)
	}
	s.pendingSnap = snap
	s.pendingDone = make(chan struct{})
	done := s.pendingDone
	s.pending = time.AfterFunc(delay, func() { s.fireRestore(snap, done) })
}

// CancelRestore drops any pending restore without firing it.
func (s *Sender) CancelRestore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return
	}
	s.pending.Stop()
	s.pending = nil
	s.pendingSnap = nil
	close(s.pendingDone)
	s.pendingDone = nil
}

// WaitRestore blocks until the pending restore has fired or been cancelled.
// Returns immediately when none is pending.
func (s *Sender) WaitRestore() {
	s.mu.Lock()
	done := s.pendingDone
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Sender) fireRestore(snap *clipboard.Snapshot, done chan struct{}) {
	s.mu.Lock()
	if s.pendingSnap != snap {
		// Superseded between firing and locking.
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.pendingSnap = nil
	s.pendingDone = nil
	s.mu.Unlock()
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.clip.Open(ctx, OpenAttempts, OpenRetryDelay); err != nil {
		slog.Warn("clipboard restore skipped", "err", err)
		return
	}
	defer s.clip.Close()

	if err := s.clip.Clear(); err != nil {
		slog.Warn("clipboard clear before restore", "err", err)
	}
	if err := s.clip.Restore(snap); err != nil {
		slog.Warn("clipboard restore failed", "err", err)
		return
	}
	slog.Debug("clipboard restored", "formats", snap.Len())
}

// NormalizeCRLF converts bare line feeds to CRLF pairs and collapses
// accidental doubled carriage returns. Applied only to outgoing text, never
// to backups.
func NormalizeCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\r\n", "\r\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\r\n")
	return s
}
