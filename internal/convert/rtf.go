package convert

import (
	"regexp"
	"strconv"
	"strings"
)

// Minimal RTF envelope pieces. The font table reserves \f2 for the Symbol
// font used by bullet glyphs, which is what the list table below and
// FixBullets both reference.
const (
	rtfHeader = `{\rtf1\ansi\ansicpg1252\deff0\nouicompat` +
		`{\fonttbl{\f0\fswiss\fcharset0 Calibri;}{\f1\fmodern\fcharset0 Consolas;}{\f2\fnil\fcharset2 Symbol;}}` +
		`{\colortbl;\red0\green0\blue0;}`

	rtfListTable = `{\*\listtable{\list\listtemplateid1\listhybrid` +
		`{\listlevel\levelnfc23\levelnfcn23\leveljc0\leveljcn0\levelfollow0\levelstartat1\levelspace360\levelindent0` +
		`{\leveltext\leveltemplateid1\'01\'b7}{\levelnumbers;}\f2\fs20\fi-360\li720\lin720}` +
		`{\listname ;}\listid1}}` +
		`{\*\listoverridetable{\listoverride\listid1\listoverridecount0\ls1}}`

	rtfBodyStart = `\viewkind4\uc1\pard\cf1\f0\fs22 `

	// bulletConstruct is the paired paragraph-numbering construct rendering
	// applications expect for a bulleted paragraph.
	bulletConstruct = `{\pntext\f2\'B7\tab}`
)

var (
	rtfSig = regexp.MustCompile(`(?i)^\s*\{\s*\\rtf1`)

	// rawBullet matches a bullet escape that is not already wrapped in a
	// \pntext group. Wrapped occurrences — and the \'b7 inside a list-table
	// \leveltext definition — are matched by the leading alternatives and
	// passed through untouched.
	rawBullet = regexp.MustCompile(`(?i)\{\\pntext[^{}]*\}|\{\\leveltext[^{}]*\}|\\'b7(?:\\tab)?`)
)

// ValidRTF reports whether s carries the RTF signature: an opening brace
// followed by \rtf1, case-insensitive, ignoring leading whitespace.
func ValidRTF(s string) bool {
	return rtfSig.MatchString(s)
}

// FixBullets rewrites every raw bullet escape in an RTF document into the
// paired {\pntext\f2\'B7\tab} construct referenced by the list table, so
// consumers render an actual bullet glyph instead of the bare escape token.
// Constructs that are already paired are left alone.
func FixBullets(rtf string) string {
	return rawBullet.ReplaceAllStringFunc(rtf, func(m string) string {
		if strings.HasPrefix(m, `{\pntext`) || strings.HasPrefix(m, `{\leveltext`) {
			return m
		}
		return bulletConstruct
	})
}

// PlainToRTF builds a complete minimal RTF document from plain text without
// invoking the external converter. Each input line becomes one paragraph
// terminated by \par.
func PlainToRTF(text string) string {
	var b strings.Builder
	b.WriteString(rtfHeader)
	b.WriteString(rtfListTable)
	b.WriteString(rtfBodyStart)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(escapeRTF(line))
		b.WriteString(`\par`)
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// escapeRTF escapes RTF control characters and encodes non-ASCII runes as
// \uN? sequences (signed 16-bit code units, per the \uc1 declaration).
func escapeRTF(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '{':
			b.WriteString(`\{`)
		case r == '}':
			b.WriteString(`\}`)
		case r < 0x80:
			b.WriteRune(r)
		case r <= 0xFFFF:
			b.WriteString(`\u`)
			b.WriteString(strconv.Itoa(int(int16(r))))
			b.WriteString("?")
		default:
			// Outside the BMP: encode as a UTF-16 surrogate pair.
			high := 0xD800 + ((r - 0x10000) >> 10)
			low := 0xDC00 + ((r - 0x10000) & 0x3FF)
			b.WriteString(`\u`)
			b.WriteString(strconv.Itoa(int(int16(high))))
			b.WriteString(`?\u`)
			b.WriteString(strconv.Itoa(int(int16(low))))
			b.WriteString("?")
		}
	}
	return b.String()
}
