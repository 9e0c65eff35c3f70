// Package convert orchestrates document format conversion through an
// external pandoc process, with fully local paths for the conversions that
// don't need one (plain text → RTF, HTML → Markdown, RTF normalization).
//
// An Engine is constructed once at startup and passed by reference; it holds
// the converter path and temp directory so that retries and tests stay
// deterministic.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"

	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/format"
)

// ErrEmptyContent is returned when a conversion is requested for empty input.
// It is checked before any file or process I/O happens.
var ErrEmptyContent = errors.New("convert: empty content")

// FormatError reports a format name that is unknown or outside the
// converter's supported-format allowlist.
type FormatError struct {
	Name string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("convert: unsupported format %q", e.Name)
}

// ConversionError reports a nonzero exit from the external converter process.
type ConversionError struct {
	ExitCode int
	Stderr   string
}

func (e *ConversionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("convert: pandoc exited %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("convert: pandoc exited %d", e.ExitCode)
}

// aliases folds common format name spellings to their canonical names.
var aliases = map[string]string{
	"md":        "markdown",
	"htm":       "html",
	"txt":       "plain",
	"text":      "plain",
	"plain":     "plain",
	"plaintext": "plain",
	"js":        "javascript",
}

// supported is the allowlist of canonical format names the external
// converter understands.
var supported = map[string]struct{}{
	"markdown": {}, "html": {}, "rtf": {}, "json": {}, "xml": {}, "csv": {},
	"docx": {}, "doc": {}, "plain": {}, "javascript": {}, "latex": {},
	"epub": {}, "pdf": {}, "odt": {}, "odp": {}, "pptx": {}, "xlsx": {},
	"rst": {}, "asciidoc": {}, "textile": {}, "org": {}, "mediawiki": {},
	"twiki": {}, "tikiwiki": {}, "creole": {}, "docbook": {}, "opml": {},
	"haddock": {}, "commonmark": {}, "gfm": {}, "muse": {}, "jira": {},
	"man": {}, "ms": {}, "tei": {}, "zimwiki": {},
}

// fileExts maps canonical names whose temp-file extension differs from the
// name itself.
var fileExts = map[string]string{
	"markdown":   "md",
	"plain":      "txt",
	"javascript": "js",
	"latex":      "tex",
	"commonmark": "md",
	"gfm":        "md",
}

// standaloneTargets are output formats pandoc must render as complete
// documents rather than fragments.
// HTML stays a fragment: clipboard payloads carry their own envelope.
var standaloneTargets = map[string]bool{
	"rtf": true, "docx": true, "odt": true, "pdf": true, "epub": true,
}

// wrapTargets get --wrap=auto so long paragraphs reflow naturally.
var wrapTargets = map[string]bool{
	"markdown": true, "commonmark": true, "gfm": true, "plain": true,
	"rst": true,
}

// Normalize folds a format name alias to its canonical name and validates it
// against the supported-format allowlist.
func Normalize(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if canon, ok := aliases[n]; ok {
		n = canon
	}
	if _, ok := supported[n]; !ok {
		return "", &FormatError{Name: name}
	}
	return n, nil
}

// Options configures an Engine.
type Options struct {
	// PandocPath is the converter executable. Empty means discover via PATH.
	PandocPath string
	// TempDir overrides os.TempDir for conversion scratch files.
	TempDir string
}

// Engine converts between document formats. The zero value is not usable;
// construct with New.
type Engine struct {
	pandoc  string
	tempDir string
}

// New builds an Engine. A missing pandoc binary is not an error here — the
// local conversion paths still work; process-backed conversions will fail
// with a descriptive error when invoked.
func New(opts Options) *Engine {
	path := opts.PandocPath
	if path == "" {
		if found, err := exec.LookPath("pandoc"); err == nil {
			path = found
		} else {
			slog.Debug("pandoc not found in PATH, only local conversions available")
		}
	}
	dir := opts.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	return &Engine{pandoc: path, tempDir: dir}
}

// PandocPath returns the resolved converter executable, or "" if none was found.
func (e *Engine) PandocPath() string { return e.pandoc }

// Convert runs content through the external converter from source to target
// format. Both names may be aliases; both must normalize into the allowlist.
// Temp files are removed on success and failure alike.
func (e *Engine) Convert(ctx context.Context, source, target, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	src, err := Normalize(source)
	if err != nil {
		return "", err
	}
	tgt, err := Normalize(target)
	if err != nil {
		return "", err
	}
	if src == "rtf" && !ValidRTF(content) {
		return "", errors.New(`convert: input claims rtf but is missing the {\rtf1 signature`)
	}
	if e.pandoc == "" {
		return "", errors.New("convert: pandoc executable not found")
	}

	id := uuid.NewString()
	in := filepath.Join(e.tempDir, "quartz-"+id+"."+fileExt(src))
	out := filepath.Join(e.tempDir, "quartz-"+id+".out."+fileExt(tgt))
	if err := os.WriteFile(in, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("convert: write source: %w", err)
	}
	defer func() {
		// Best effort; a leftover temp file is not worth failing over.
		_ = os.Remove(in)
		_ = os.Remove(out)
	}()

	args := []string{in, "-o", out, "--from", src, "--to", tgt}
	if standaloneTargets[tgt] {
		args = append(args, "--standalone")
	}
	if wrapTargets[tgt] {
		args = append(args, "--wrap=auto")
	}

	cmd := exec.CommandContext(ctx, e.pandoc, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	slog.Debug("invoking converter", "from", src, "to", tgt, "bytes", len(content))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ConversionError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("convert: run pandoc: %w", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return "", fmt.Errorf("convert: read result: %w", err)
	}
	result := string(data)
	if tgt == "rtf" {
		result = FixBullets(result)
	}
	return result, nil
}

// ToHTML converts content of any detected format to HTML.
func (e *Engine) ToHTML(ctx context.Context, content string) (string, error) {
	switch tag := format.Detect(content); tag {
	case format.TagHTML:
		return content, nil
	case format.TagRTF:
		return e.Convert(ctx, "rtf", "html", content)
	case format.TagPlain:
		// Plain text is valid markdown input.
		return e.Convert(ctx, "markdown", "html", content)
	default:
		return e.Convert(ctx, SourceName(tag), "html", content)
	}
}

// ToMarkdown converts content of any detected format to Markdown. The HTML
// route runs locally without spawning the converter.
func (e *Engine) ToMarkdown(ctx context.Context, content string) (string, error) {
	switch tag := format.Detect(content); tag {
	case format.TagMarkdown, format.TagPlain:
		return content, nil
	case format.TagHTML:
		md, err := htmltomarkdown.ConvertString(content)
		if err != nil {
			return "", fmt.Errorf("convert: html to markdown: %w", err)
		}
		return md, nil
	default:
		return e.Convert(ctx, SourceName(tag), "markdown", content)
	}
}

// ToRTF converts content of any detected format to RTF. Plain text is
// synthesized locally; pre-existing RTF is validated and bullet-repaired
// without a process round trip.
func (e *Engine) ToRTF(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	switch tag := format.Detect(content); tag {
	case format.TagRTF:
		if !ValidRTF(content) {
			return "", errors.New(`convert: missing {\rtf1 signature`)
		}
		return FixBullets(content), nil
	case format.TagPlain:
		return PlainToRTF(content), nil
	default:
		return e.Convert(ctx, SourceName(tag), "rtf", content)
	}
}

// ToPlain converts content of any detected format to plain text.
func (e *Engine) ToPlain(ctx context.Context, content string) (string, error) {
	switch tag := format.Detect(content); tag {
	case format.TagPlain:
		return content, nil
	default:
		return e.Convert(ctx, SourceName(tag), "plain", content)
	}
}

// SourceName maps a detected tag to the converter's input format name.
// Tags with no converter reader fall back to markdown, which accepts
// arbitrary text.
func SourceName(tag format.Tag) string {
	name := string(tag)
	if canon, ok := aliases[name]; ok {
		name = canon
	}
	if _, ok := supported[name]; ok {
		return name
	}
	return "markdown"
}

func fileExt(canon string) string {
	if ext, ok := fileExts[canon]; ok {
		return ext
	}
	return canon
}
