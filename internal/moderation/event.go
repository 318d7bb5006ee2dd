package moderation

import (
	"strings"
	"time"
	"unicode/utf16"
)

// Span addresses a substring of the message base text in UTF-16 code
// units, which is how Telegram counts entity offsets.
type Span struct {
	Offset int
	Length int
}

// Event is an immutable snapshot of one incoming message. It is built
// once by the transport glue and not retained beyond processing.
type Event struct {
	UserID      int64
	ChatID      int64
	MessageID   int
	DisplayName string
	IsAdmin     bool
	IsTrusted   bool
	Text        string
	Caption     string
	LinkSpans   []Span
	// Links carries URLs that are not part of the visible text, such as
	// targets of text_link entities.
	Links []string
	Time  time.Time
}

// Aggregate folds the message body, caption and every link span into a
// single evaluable blob. Duplicated substrings are fine, they only
// reinforce scoring.
func Aggregate(ev Event) string {
	parts := make([]string, 0, 2+len(ev.LinkSpans)+len(ev.Links))
	if ev.Text != "" {
		parts = append(parts, ev.Text)
	}
	if ev.Caption != "" {
		parts = append(parts, ev.Caption)
	}
	if len(ev.LinkSpans) > 0 {
		base := ev.Text
		if base == "" {
			base = ev.Caption
		}
		units := utf16.Encode([]rune(base))
		for _, span := range ev.LinkSpans {
			start, end := span.Offset, span.Offset+span.Length
			if start < 0 || start >= end || end > len(units) {
				continue
			}
			parts = append(parts, string(utf16.Decode(units[start:end])))
		}
	}
	parts = append(parts, ev.Links...)
	return strings.TrimSpace(strings.Join(parts, " "))
}
