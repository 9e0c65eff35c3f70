// Package format classifies text content into a document format tag.
//
// Detection is a pure function of the input: it never errors, and unmatched
// input always resolves to TagPlain. Checks run in strict priority order —
// RTF, HTML, JSON, Markdown, CSV, XML, YAML front matter — because the
// cheaper signatures (an RTF header, a doctype) are also the most reliable.
package format

import (
	"os"
	"regexp"
	"strings"
)

// Tag identifies a detected document format.
type Tag string

const (
	TagPlain       Tag = "plaintext"
	TagMarkdown    Tag = "markdown"
	TagHTML        Tag = "html"
	TagRTF         Tag = "rtf"
	TagJSON        Tag = "json"
	TagXML         Tag = "xml"
	TagCSV         Tag = "csv"
	TagDocx        Tag = "docx"
	TagDoc         Tag = "doc"
	TagUnknown     Tag = "unknown"
	TagUnknownFile Tag = "unknown-file"
)

var rtfSignature = regexp.MustCompile(`(?i)^\{\s*\\rtf1`)

var htmlBlockTags = []string{
	"<div", "<p>", "<p ", "<table", "<span", "<br", "<ul", "<ol", "<li",
	"<h1", "<h2", "<h3", "<h4", "<h5", "<h6", "<blockquote", "<pre",
}

// markdownSignals are the signal patterns a markdown classification is scored
// against. At least two distinct patterns must match.
var markdownSignals = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^#{1,6}\s+\S`),                  // ATX headers
	regexp.MustCompile(`(?m)^\s*[-*+]\s+\S`),                // unordered list
	regexp.MustCompile(`(?m)^\s*\d+\.\s+\S`),                // ordered list
	regexp.MustCompile(`\*\*[^*\n]+\*\*|__[^_\n]+__`),       // bold
	regexp.MustCompile(`(?m)(?:^|[\s(])\*[^*\s][^*\n]*\*|\b_[^_\n]+_\b`), // italic
	regexp.MustCompile(`~~[^~\n]+~~`),                       // strikethrough
	regexp.MustCompile("`[^`\n]+`"),                         // inline code
	regexp.MustCompile("(?m)^```"),                          // fenced code
	regexp.MustCompile(`(?m)^>\s+\S`),                       // blockquote
	regexp.MustCompile(`!\[[^\]]*\]\([^)\n]+\)`),            // image
	regexp.MustCompile(`\[[^\]\n]+\]\([^)\n]+\)`),           // link
}

// extTags maps file extensions to their format tag for path-based detection.
var extTags = map[string]Tag{
	".md":       TagMarkdown,
	".markdown": TagMarkdown,
	".html":     TagHTML,
	".htm":      TagHTML,
	".rtf":      TagRTF,
	".json":     TagJSON,
	".xml":      TagXML,
	".csv":      TagCSV,
	".docx":     TagDocx,
	".doc":      TagDoc,
	".txt":      TagPlain,
	".text":     TagPlain,
}

// Detect classifies content into a format tag. Empty input is TagPlain.
// If the input is a single line naming a file that exists on disk,
// classification is delegated to DetectPath.
func Detect(input string) Tag {
	if input == "" {
		return TagPlain
	}
	if looksLikePath(input) {
		if _, err := os.Stat(input); err == nil {
			return DetectPath(input)
		}
	}

	s := strings.TrimSpace(input)
	lower := strings.ToLower(s)

	switch {
	case rtfSignature.MatchString(s):
		return TagRTF
	case isHTML(lower):
		return TagHTML
	case isJSON(s):
		return TagJSON
	case markdownScore(s) >= 2:
		return TagMarkdown
	case isCSV(s):
		return TagCSV
	case strings.HasPrefix(lower, "<?xml"):
		return TagXML
	case strings.HasPrefix(s, "---"):
		// YAML front matter implies a markdown document.
		return TagMarkdown
	default:
		return TagPlain
	}
}

// DetectPath classifies a file by its extension. Files with an extension
// outside the allowlist are TagUnknownFile; classification never fails.
func DetectPath(path string) Tag {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return TagUnknownFile
	}
	if tag, ok := extTags[strings.ToLower(path[dot:])]; ok {
		return tag
	}
	return TagUnknownFile
}

// looksLikePath filters out anything that could not plausibly be a file path
// before touching the filesystem.
func looksLikePath(s string) bool {
	return len(s) < 260 && !strings.ContainsAny(s, "\n\r")
}

func isHTML(lower string) bool {
	for _, prefix := range []string{"<!doctype", "<html", "<body"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	for _, tag := range htmlBlockTags {
		if strings.Contains(lower, tag) {
			return true
		}
	}
	return false
}

func isJSON(s string) bool {
	switch {
	case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
		return true
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		return true
	}
	return false
}

// markdownScore counts how many distinct markdown signal patterns match.
func markdownScore(s string) int {
	score := 0
	for _, re := range markdownSignals {
		if re.MatchString(s) {
			score++
		}
	}
	return score
}

// isCSV reports whether the first two non-empty lines carry an equal,
// nonzero number of comma separators.
func isCSV(s string) bool {
	var counts []int
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		counts = append(counts, strings.Count(line, ","))
		if len(counts) == 2 {
			break
		}
	}
	return len(counts) == 2 && counts[0] > 0 && counts[0] == counts[1]
}
