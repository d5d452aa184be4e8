package notifications

import (
	"strings"
	"unicode/utf8"
)

// maxEntityLen bounds the name of an HTML entity, "&" and ";" excluded.
const maxEntityLen = 10

// SplitCaption returns the photo caption for text and whether the full text has to
// follow as a separate message. Text is Telegram HTML: length is counted the way
// Telegram does after parsing, so tags are free and an entity is one character.
// The cut never lands inside a tag or an entity, and tags left open are closed.
func SplitCaption(text string) (string, bool) {
	if VisibleLen(text) <= CaptionLimit {
		return text, false
	}

	var (
		b    strings.Builder
		open []string
		kept int
	)
	for i := 0; i < len(text) && kept < captionKeep; {
		out, n, visible := captionToken(text, i)
		if visible == 0 {
			open = trackTag(open, out)
		}
		b.WriteString(out)
		kept += visible
		i += n
	}
	b.WriteString(ellipsis)
	for j := len(open) - 1; j >= 0; j-- {
		b.WriteString("</" + open[j] + ">")
	}
	return b.String(), true
}

// VisibleLen is the length of HTML text as rendered by Telegram.
func VisibleLen(text string) int {
	total := 0
	for i := 0; i < len(text); {
		_, n, visible := captionToken(text, i)
		total += visible
		i += n
	}
	return total
}

// captionToken reads the token at text[i]: a tag, an entity or a single rune.
// It returns what to emit for it, the bytes consumed and its rendered width.
// A stray "&" or "<" is emitted escaped.
func captionToken(text string, i int) (out string, n, visible int) {
	switch text[i] {
	case '<':
		if isTagStart(text[i+1:]) {
			if end := strings.IndexByte(text[i:], '>'); end > 0 {
				return text[i : i+end+1], end + 1, 0
			}
		}
		return "&lt;", 1, 1
	case '&':
		if end := entityEnd(text[i+1:]); end > 0 {
			return text[i : i+end+2], end + 2, 1
		}
		return "&amp;", 1, 1
	}
	_, size := utf8.DecodeRuneInString(text[i:])
	return text[i : i+size], size, 1
}

func isTagStart(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '/' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// entityEnd returns the length of the entity name in s when s continues an
// entity ("amp;", "#39;"), 0 otherwise.
func entityEnd(s string) int {
	for j := 0; j < len(s) && j <= maxEntityLen; j++ {
		c := s[j]
		switch {
		case c == ';':
			return j
		case c == '#', '0' <= c && c <= '9', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		default:
			return 0
		}
	}
	return 0
}

// trackTag pushes an opening tag name onto open or pops the matching one for a
// closing tag. Self-closing tags are ignored.
func trackTag(open []string, tag string) []string {
	if strings.HasSuffix(tag, "/>") {
		return open
	}
	body := strings.TrimSuffix(strings.TrimPrefix(tag, "<"), ">")
	closing := strings.HasPrefix(body, "/")
	body = strings.TrimPrefix(body, "/")
	name := body
	if k := strings.IndexAny(body, " \t\n"); k >= 0 {
		name = body[:k]
	}
	name = strings.ToLower(name)

	if !closing {
		return append(open, name)
	}
	for j := len(open) - 1; j >= 0; j-- {
		if open[j] == name {
			return open[:j]
		}
	}
	return open
}
