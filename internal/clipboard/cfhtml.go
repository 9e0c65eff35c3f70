package clipboard

import (
	"fmt"
	"strconv"
	"strings"
)

// CF_HTML: the "HTML Format" clipboard payload is a plaintext header of
// byte offsets followed by an HTML document whose pasteable selection is
// delimited by fragment markers. All offsets are measured in UTF-8 bytes
// from the start of the full payload and rendered as 8-digit zero-padded
// decimals; the header layout is fixed by the OS convention and consumers
// (browsers, Office) truncate or misrender on any deviation.
const (
	cfHTMLVersion = "0.9"

	fragStartMarker = "<!--StartFragment-->"
	fragEndMarker   = "<!--EndFragment-->"

	cfHTMLPrefix = "<html>\r\n<body>\r\n" + fragStartMarker
	cfHTMLSuffix = fragEndMarker + "\r\n</body>\r\n</html>"
)

// cfHTMLHeader renders the five-line CRLF-terminated header. Because every
// offset field is fixed at 8 digits the rendered header has constant length,
// which is what makes the offsets computable before the header exists.
func cfHTMLHeader(startHTML, endHTML, startFrag, endFrag int) string {
	return fmt.Sprintf(
		"Version:%s\r\nStartHTML:%08d\r\nEndHTML:%08d\r\nStartFragment:%08d\r\nEndFragment:%08d\r\n",
		cfHTMLVersion, startHTML, endHTML, startFrag, endFrag)
}

// EncodeCFHTML wraps an HTML fragment in the CF_HTML envelope: header,
// minimal document, fragment markers.
func EncodeCFHTML(fragment string) []byte {
	headerLen := len(cfHTMLHeader(0, 0, 0, 0))

	startHTML := headerLen
	startFrag := startHTML + len(cfHTMLPrefix)
	endFrag := startFrag + len(fragment)
	endHTML := endFrag + len(cfHTMLSuffix)

	var b strings.Builder
	b.Grow(endHTML)
	b.WriteString(cfHTMLHeader(startHTML, endHTML, startFrag, endFrag))
	b.WriteString(cfHTMLPrefix)
	b.WriteString(fragment)
	b.WriteString(cfHTMLSuffix)
	return []byte(b.String())
}

// DecodeCFHTML extracts the fragment from a CF_HTML payload using the header
// offsets, falling back to the fragment markers when the offsets are absent
// or out of range (some producers write sloppy headers).
func DecodeCFHTML(payload []byte) (string, error) {
	s := string(payload)

	start, startOK := cfHTMLField(s, "StartFragment")
	end, endOK := cfHTMLField(s, "EndFragment")
	if startOK && endOK && start >= 0 && start <= end && end <= len(s) {
		return s[start:end], nil
	}

	if i := strings.Index(s, fragStartMarker); i >= 0 {
		rest := s[i+len(fragStartMarker):]
		if j := strings.Index(rest, fragEndMarker); j >= 0 {
			return rest[:j], nil
		}
	}
	return "", fmt.Errorf("clipboard: malformed CF_HTML payload")
}

// cfHTMLField parses one numeric header field from a CF_HTML payload.
func cfHTMLField(s, name string) (int, bool) {
	i := strings.Index(s, name+":")
	if i < 0 {
		return 0, false
	}
	rest := s[i+len(name)+1:]
	end := strings.IndexAny(rest, "\r\n")
	if end < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest[:end]))
	if err != nil {
		return 0, false
	}
	return n, true
}
