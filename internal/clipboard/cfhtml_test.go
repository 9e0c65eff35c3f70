package clipboard

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
)

var offsetRe = regexp.MustCompile(`(StartHTML|EndHTML|StartFragment|EndFragment):(\d{8})\r\n`)

func headerOffsets(t *testing.T, payload string) map[string]int {
	t.Helper()
	out := make(map[string]int)
	for _, m := range offsetRe.FindAllStringSubmatch(payload, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			t.Fatalf("bad offset %q: %v", m[2], err)
		}
		out[m[1]] = n
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 offset fields, got %d in %q", len(out), payload)
	}
	return out
}

func TestEncodeCFHTMLOffsets(t *testing.T) {
	fragments := []string{
		"<b>bold</b>",
		"",
		"<p>multi\r\nline</p>",
		"<p>héllo wörld — ünïcode 漢字 🙂</p>", // multi-byte UTF-8
		strings.Repeat("<p>x</p>", 5000),      // push offsets past 5 digits
	}

	for _, frag := range fragments {
		payload := string(EncodeCFHTML(frag))

		if !strings.HasPrefix(payload, "Version:0.9\r\n") {
			t.Fatalf("missing Version line: %q", payload[:40])
		}
		off := headerOffsets(t, payload)

		if !(off["StartHTML"] <= off["StartFragment"] &&
			off["StartFragment"] <= off["EndFragment"] &&
			off["EndFragment"] <= off["EndHTML"] &&
			off["EndHTML"] <= len(payload)) {
			t.Fatalf("offset invariant violated: %v (len %d)", off, len(payload))
		}

		// Each offset must equal the true UTF-8 byte length of the payload
		// preceding it.
		if got := payload[off["StartFragment"]:off["EndFragment"]]; got != frag {
			t.Errorf("fragment slice = %q, want %q", got, frag)
		}
		if !strings.HasPrefix(payload[off["StartHTML"]:], "<html>") {
			t.Errorf("StartHTML does not point at the document start")
		}
		if off["EndHTML"] != len(payload) {
			t.Errorf("EndHTML = %d, want payload length %d", off["EndHTML"], len(payload))
		}
	}
}

func TestEncodeCFHTMLFragmentMarkers(t *testing.T) {
	payload := string(EncodeCFHTML("<i>x</i>"))
	start := strings.Index(payload, "<!--StartFragment-->")
	end := strings.Index(payload, "<!--EndFragment-->")
	if start < 0 || end < 0 || end < start {
		t.Fatalf("fragment markers missing or reversed in %q", payload)
	}
	if payload[start+len("<!--StartFragment-->"):end] != "<i>x</i>" {
		t.Errorf("content between markers is not the fragment")
	}
}

func TestDecodeCFHTMLRoundTrip(t *testing.T) {
	for _, frag := range []string{"<b>hi</b>", "", "<p>漢字</p>"} {
		got, err := DecodeCFHTML(EncodeCFHTML(frag))
		if err != nil {
			t.Fatalf("DecodeCFHTML(%q): %v", frag, err)
		}
		if got != frag {
			t.Errorf("round trip = %q, want %q", got, frag)
		}
	}
}

func TestDecodeCFHTMLMarkerFallback(t *testing.T) {
	// No header at all — some producers write only the document.
	raw := "<html><body><!--StartFragment--><u>x</u><!--EndFragment--></body></html>"
	got, err := DecodeCFHTML([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if got != "<u>x</u>" {
		t.Errorf("fallback fragment = %q, want %q", got, "<u>x</u>")
	}

	if _, err := DecodeCFHTML([]byte("not cfhtml at all")); err == nil {
		t.Error("expected error for junk payload")
	}
}
