package send

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/clipboard"
)

type fakeConverter struct {
	html    string
	rtf     string
	htmlErr error
	rtfErr  error
}

func (f *fakeConverter) ToHTML(_ context.Context, _ string) (string, error) {
	return f.html, f.htmlErr
}

func (f *fakeConverter) ToRTF(_ context.Context, _ string) (string, error) {
	return f.rtf, f.rtfErr
}

type fakeInspector struct{ proc string }

func (f fakeInspector) ForegroundProcess() (string, error) { return f.proc, nil }

type fakePaster struct {
	mu     sync.Mutex
	pastes int
}

func (f *fakePaster) Paste() error {
	f.mu.Lock()
	f.pastes++
	f.mu.Unlock()
	return nil
}

func (f *fakePaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pastes
}

func newTestSender(proc string) (*Sender, *clipboard.Memory, *fakePaster) {
	clip := clipboard.NewMemory()
	paster := &fakePaster{}
	conv := &fakeConverter{
		html: "<p>converted</p>",
		rtf:  `{\rtf1 converted}`,
	}
	s := New(clip, conv, fakeInspector{proc: proc}, paster)
	return s, clip, paster
}

func clipText(t *testing.T, m *clipboard.Memory) string {
	t.Helper()
	if err := m.Open(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	text, err := m.Text()
	if err != nil {
		t.Fatal(err)
	}
	return text
}

func TestNormalizeCRLF(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a\nb", "a\r\nb"},
		{"a\r\nb", "a\r\nb"},
		{"a\r\r\nb", "a\r\nb"},
		{"a\n\nb", "a\r\n\r\nb"},
		{"no endings", "no endings"},
	}
	for _, tt := range tests {
		if got := NormalizeCRLF(tt.in); got != tt.want {
			t.Errorf("NormalizeCRLF(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSendPlainText(t *testing.T) {
	s, clip, paster := newTestSender("notepad.exe")

	err := s.Send(context.Background(), "Hello\nWorld", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if paster.count() != 1 {
		t.Errorf("paste triggered %d times, want 1", paster.count())
	}
	if got := clipText(t, clip); got != "Hello\r\nWorld" {
		t.Errorf("clipboard text = %q, want normalized CRLF", got)
	}
}

func TestSendRejectsEmptyContent(t *testing.T) {
	s, _, paster := newTestSender("")
	if err := s.Send(context.Background(), "   ", Options{}); err == nil {
		t.Error("expected error for empty content")
	}
	if paster.count() != 0 {
		t.Error("paste fired for empty content")
	}
}

func TestSendMarkdownWritesRTFWithTextCompanion(t *testing.T) {
	s, clip, _ := newTestSender("winword.exe")

	content := "# Title\n\n**bold** text"
	if err := s.Send(context.Background(), content, Options{}); err != nil {
		t.Fatal(err)
	}

	if err := clip.Open(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	defer clip.Close()
	rtf, err := clipboard.GetRTF(clip)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(rtf, `{\rtf1`) {
		t.Errorf("rtf payload = %q", rtf)
	}
	text, _ := clip.Text()
	if !strings.Contains(text, "**bold**") {
		t.Errorf("plain-text companion missing, got %q", text)
	}
}

func TestSendRTFToBrowserReroutesToHTML(t *testing.T) {
	s, clip, _ := newTestSender("msedge.exe")

	if err := s.Send(context.Background(), `{\rtf1 rich}`, Options{}); err != nil {
		t.Fatal(err)
	}

	if err := clip.Open(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	defer clip.Close()
	frag, err := clipboard.GetHTML(clip)
	if err != nil {
		t.Fatal(err)
	}
	if frag != "<p>converted</p>" {
		t.Errorf("html fragment = %q", frag)
	}
	rtf, _ := clipboard.GetRTF(clip)
	if rtf != "" {
		t.Errorf("rtf written despite browser target: %q", rtf)
	}
}

func TestSendRTFToEditorStaysRTF(t *testing.T) {
	s, clip, _ := newTestSender("winword.exe")

	if err := s.Send(context.Background(), `{\rtf1 rich}`, Options{}); err != nil {
		t.Fatal(err)
	}

	if err := clip.Open(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	defer clip.Close()
	rtf, err := clipboard.GetRTF(clip)
	if err != nil {
		t.Fatal(err)
	}
	if rtf != `{\rtf1 rich}` {
		t.Errorf("rtf payload = %q", rtf)
	}
}

func TestSendRestoresClipboardAfterDelay(t *testing.T) {
	s, clip, _ := newTestSender("notepad.exe")

	// Seed the clipboard with prior content.
	if err := clip.Open(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := clip.SetText("prior content"); err != nil {
		t.Fatal(err)
	}
	clip.Close()

	err := s.Send(context.Background(), "Hello", Options{
		Restore:      true,
		RestoreDelay: 30 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Immediately after the send the new content is live.
	if got := clipText(t, clip); got != "Hello" {
		t.Errorf("clipboard before restore = %q", got)
	}

	s.WaitRestore()
	if got := clipText(t, clip); got != "prior content" {
		t.Errorf("clipboard after restore = %q, want prior content", got)
	}
}

func TestSendWithoutRestoreLeavesContent(t *testing.T) {
	s, clip, _ := newTestSender("notepad.exe")

	if err := s.Send(context.Background(), "keep me", Options{}); err != nil {
		t.Fatal(err)
	}
	s.WaitRestore() // nothing pending; must not block
	if got := clipText(t, clip); got != "keep me" {
		t.Errorf("clipboard = %q", got)
	}
}

func TestSendSupersedesPendingRestore(t *testing.T) {
	s, clip, _ := newTestSender("notepad.exe")

	if err := clip.Open(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := clip.SetText("oldest"); err != nil {
		t.Fatal(err)
	}
	clip.Close()

	// First send schedules a restore of "oldest" far in the future.
	err := s.Send(context.Background(), "first", Options{
		Restore:      true,
		RestoreDelay: time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Second send supersedes it: the pending "oldest" restore is dropped
	// and the new backup captures "first".
	err = s.Send(context.Background(), "second", Options{
		Restore:      true,
		RestoreDelay: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	s.WaitRestore()
	if got := clipText(t, clip); got != "first" {
		t.Errorf("clipboard = %q, want %q (second call's backup)", got, "first")
	}
}

type failPaster struct{}

func (failPaster) Paste() error { return errors.New("paste rejected") }

func TestPasteFailureStillRestores(t *testing.T) {
	clip := clipboard.NewMemory()
	conv := &fakeConverter{rtf: `{\rtf1 converted}`, html: "<p>converted</p>"}
	s := New(clip, conv, fakeInspector{proc: "notepad.exe"}, failPaster{})

	if err := clip.Open(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := clip.SetText("prior content"); err != nil {
		t.Fatal(err)
	}
	clip.Close()

	err := s.Send(context.Background(), "Hello", Options{
		Restore:      true,
		RestoreDelay: 20 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected the paste failure to surface")
	}

	// The restore is armed despite the error; waiting on it must bring the
	// original clipboard back.
	s.WaitRestore()
	if got := clipText(t, clip); got != "prior content" {
		t.Errorf("clipboard after failed paste = %q, want prior content", got)
	}
}

func TestScheduleReplacesPendingTimer(t *testing.T) {
	s, clip, _ := newTestSender("notepad.exe")

	if err := clip.Open(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := clip.SetText("prior"); err != nil {
		t.Fatal(err)
	}
	snap1, err := clip.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	snap2, err := clip.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	clip.Close()

	s.schedule(snap1, time.Hour)
	s.mu.Lock()
	done1 := s.pendingDone
	s.mu.Unlock()

	s.schedule(snap2, 10*time.Millisecond)
	select {
	case <-done1:
	case <-time.After(time.Second):
		t.Fatal("replaced timer's done channel was never closed")
	}

	s.WaitRestore()
	if got := clipText(t, clip); got != "prior" {
		t.Errorf("clipboard after replacement restore = %q", got)
	}
}

func TestCancelRestore(t *testing.T) {
	s, clip, _ := newTestSender("notepad.exe")

	err := s.Send(context.Background(), "content", Options{
		Restore:      true,
		RestoreDelay: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	s.CancelRestore()
	time.Sleep(50 * time.Millisecond)
	if got := clipText(t, clip); got != "content" {
		t.Errorf("cancelled restore still fired, clipboard = %q", got)
	}
}

func TestIsBrowser(t *testing.T) {
	tests := []struct {
		proc string
		want bool
	}{
		{`C:\Program Files\Microsoft\Edge\msedge.exe`, true},
		{"chrome.exe", true},
		{"FIREFOX.EXE", true},
		{"/usr/bin/firefox", true},
		{"winword.exe", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isBrowser(tt.proc); got != tt.want {
			t.Errorf("isBrowser(%q) = %v, want %v", tt.proc, got, tt.want)
		}
	}
}
