package clipboard

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func openMem(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	if err := m.Open(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Close)
	return m
}

func TestSetGetRoundTrip(t *testing.T) {
	m := openMem(t)

	f, err := m.Register(NameRTF)
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte(`{\rtf1\ansi exact byte sequence \u8212?}`)
	if err := m.Set(f, payload); err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(f)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Get = %q, want %q", got, payload)
	}

	if err := m.SetText("unicode — 漢字"); err != nil {
		t.Fatal(err)
	}
	text, err := m.Text()
	if err != nil {
		t.Fatal(err)
	}
	if text != "unicode — 漢字" {
		t.Errorf("Text = %q", text)
	}
}

func TestGetMissingFormatIsNotAnError(t *testing.T) {
	m := openMem(t)
	f, _ := m.Register("Some Custom Format")
	data, err := m.Get(f)
	if err != nil {
		t.Fatalf("missing format returned error: %v", err)
	}
	if data != nil {
		t.Errorf("missing format returned data: %q", data)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	m := NewMemory()
	a, err := m.Register(NameHTML)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Register(NameHTML)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("Register returned different ids for same name: %d != %d", a, b)
	}
	other, _ := m.Register(NameRTF)
	if other == a {
		t.Error("distinct names share an id")
	}
	if a < firstRegistered {
		t.Errorf("registered id %d below registered range", a)
	}
}

func TestOpenRetriesThenFails(t *testing.T) {
	m := NewMemory()
	m.SetHold(func() bool { return true })

	const (
		attempts = 3
		delay    = 20 * time.Millisecond
	)
	start := time.Now()
	err := m.Open(context.Background(), attempts, delay)
	elapsed := time.Since(start)

	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected *OpError, got %v", err)
	}
	if elapsed < attempts*delay-delay/2 {
		t.Errorf("Open returned after %v, expected roughly %v", elapsed, attempts*delay)
	}
}

func TestOpenSucceedsOnceHoldReleases(t *testing.T) {
	m := NewMemory()
	tries := 0
	m.SetHold(func() bool {
		tries++
		return tries < 3
	})
	if err := m.Open(context.Background(), 5, time.Millisecond); err != nil {
		t.Fatalf("Open should succeed once the holder releases: %v", err)
	}
	m.Close()
}

func TestOperationsRequireOpen(t *testing.T) {
	m := NewMemory()
	if _, err := m.Get(FmtUnicodeText); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Get without Open: %v", err)
	}
	if err := m.Set(FmtUnicodeText, []byte("x")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Set without Open: %v", err)
	}
	if err := m.Clear(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Clear without Open: %v", err)
	}
}

func TestWait(t *testing.T) {
	m := NewMemory()
	if !m.Wait(10 * time.Millisecond) {
		t.Error("Wait on a free clipboard should return immediately")
	}
	m.SetHold(func() bool { return true })
	if m.Wait(30 * time.Millisecond) {
		t.Error("Wait on a held clipboard should time out")
	}
}

func TestSnapshotRestore(t *testing.T) {
	m := openMem(t)

	if err := SetRTF(m, `{\rtf1 original}`); err != nil {
		t.Fatal(err)
	}
	if err := m.SetText("original text"); err != nil {
		t.Fatal(err)
	}

	snap, err := m.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != 2 {
		t.Fatalf("snapshot captured %d formats, want 2", snap.Len())
	}

	if err := m.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := m.SetText("overwritten"); err != nil {
		t.Fatal(err)
	}

	if err := m.Restore(snap); err != nil {
		t.Fatal(err)
	}
	text, _ := m.Text()
	if text != "original text" {
		t.Errorf("restored text = %q", text)
	}
	rtf, err := GetRTF(m)
	if err != nil {
		t.Fatal(err)
	}
	if rtf != `{\rtf1 original}` {
		t.Errorf("restored rtf = %q", rtf)
	}
}

func TestSnapshotRestoresExactlyOnce(t *testing.T) {
	m := openMem(t)
	_ = m.SetText("x")
	snap, err := m.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Restore(snap); err != nil {
		t.Fatal(err)
	}
	if err := m.Restore(snap); !errors.Is(err, ErrSnapshotRestored) {
		t.Errorf("second restore: %v, want ErrSnapshotRestored", err)
	}
}

func TestSetRTFValidatesSignature(t *testing.T) {
	m := openMem(t)
	if err := SetRTF(m, "definitely not rtf"); !errors.Is(err, ErrNotRTF) {
		t.Errorf("SetRTF accepted junk: %v", err)
	}
	// Rejection happens before any mutation.
	f, _ := m.Register(NameRTF)
	if data, _ := m.Get(f); data != nil {
		t.Error("failed SetRTF left data on the clipboard")
	}

	if err := SetRTF(m, `{\rtf1\ansi ok}`); err != nil {
		t.Errorf("SetRTF rejected valid rtf: %v", err)
	}
}

func TestSetHTMLWritesCFHTML(t *testing.T) {
	m := openMem(t)
	if err := SetHTML(m, "<b>frag</b>"); err != nil {
		t.Fatal(err)
	}
	f, _ := m.Register(NameHTML)
	raw, err := m.Get(f)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte("Version:0.9\r\n")) {
		t.Errorf("payload missing CF_HTML header: %q", raw[:30])
	}
	frag, err := GetHTML(m)
	if err != nil {
		t.Fatal(err)
	}
	if frag != "<b>frag</b>" {
		t.Errorf("GetHTML = %q", frag)
	}
}
