package moderation

import (
	"strings"
	"testing"
	"time"
)

func TestAuditRecordHTML(t *testing.T) {
	t.Parallel()

	ev := Event{
		UserID:      123,
		ChatID:      -100500,
		DisplayName: "Bob <script>",
		Text:        "selling <b>stuff</b>",
		Time:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	action := Action{
		Kind:    ActionDeleteAndRestrict,
		Reason:  ReasonDealerAd,
		Until:   ev.Time.Add(72 * time.Hour),
		Score:   7,
		Signals: []SignalKind{SignalSellIntent, SignalMessengerLink},
	}

	record := NewAuditRecord(ev, "Night Chat", action)
	if record.ID == "" {
		t.Fatal("audit record has no id")
	}

	out := record.HTML()
	for _, want := range []string{
		"Dealer Ad",
		"Bob &lt;script&gt;",
		"<code>123</code>",
		"Night Chat",
		"<code>-100500</code>",
		string(ActionDeleteAndRestrict),
		"<b>Score:</b> 7",
		"sell_intent, messenger_link",
		"selling &lt;b&gt;stuff&lt;/b&gt;",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered record misses %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Fatal("user input leaked unescaped into the record")
	}
}

func TestAuditRecordTruncatesContent(t *testing.T) {
	t.Parallel()

	ev := Event{UserID: 1, ChatID: 2, DisplayName: "x", Text: strings.Repeat("я", 3000)}
	record := NewAuditRecord(ev, "", Action{Kind: ActionDeleteAndWarn, Reason: ReasonBannedWord})

	out := record.HTML()
	if got := strings.Count(out, "я"); got != maxAuditContent {
		t.Fatalf("rendered content holds %d runes, want %d", got, maxAuditContent)
	}
	// Empty chat title falls back to the chat id.
	if !strings.Contains(out, "<b>Chat:</b> 2") {
		t.Fatalf("missing chat id fallback:\n%s", out)
	}
}
