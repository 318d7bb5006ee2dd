package moderation

import (
	"fmt"
	"html"
	"strings"

	"github.com/pborman/uuid"
)

const maxAuditContent = 2000

// AuditRecord is the structured trail for one enforced action. Rendered
// once and delivered to the audit sink by the transport layer.
type AuditRecord struct {
	ID          string
	Action      Action
	UserID      int64
	DisplayName string
	ChatID      int64
	ChatTitle   string
	Content     string
}

func NewAuditRecord(ev Event, chatTitle string, action Action) AuditRecord {
	return AuditRecord{
		ID:          uuid.New(),
		Action:      action,
		UserID:      ev.UserID,
		DisplayName: ev.DisplayName,
		ChatID:      ev.ChatID,
		ChatTitle:   chatTitle,
		Content:     Aggregate(ev),
	}
}

// HTML renders the record for the admin log chat.
func (r AuditRecord) HTML() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Auto-Moderation: %s</b>\n", auditTitle(r.Action))
	fmt.Fprintf(&b, "<b>User:</b> %s (id: <code>%d</code>)\n", html.EscapeString(r.DisplayName), r.UserID)
	chatTitle := r.ChatTitle
	if chatTitle == "" {
		chatTitle = fmt.Sprintf("%d", r.ChatID)
	}
	fmt.Fprintf(&b, "<b>Chat:</b> %s (id: <code>%d</code>)\n", html.EscapeString(chatTitle), r.ChatID)
	fmt.Fprintf(&b, "<b>Action:</b> %s\n", r.Action.Kind)
	if r.Action.Score > 0 {
		fmt.Fprintf(&b, "<b>Score:</b> %d\n", r.Action.Score)
	}
	if len(r.Action.Signals) > 0 {
		kinds := make([]string, 0, len(r.Action.Signals))
		for _, kind := range r.Action.Signals {
			kinds = append(kinds, string(kind))
		}
		fmt.Fprintf(&b, "<b>Signals:</b> %s\n", strings.Join(kinds, ", "))
	}
	if !r.Action.Until.IsZero() {
		fmt.Fprintf(&b, "<b>Until:</b> %s\n", r.Action.Until.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "<b>Record:</b> <code>%s</code>\n", r.ID)
	if r.Content != "" {
		fmt.Fprintf(&b, "\n<b>Content:</b>\n%s", html.EscapeString(truncateRunes(r.Content, maxAuditContent)))
	}
	return b.String()
}

func auditTitle(action Action) string {
	switch action.Reason {
	case ReasonDealerAd:
		return "Dealer Ad"
	case ReasonBannedWord:
		return "Banned Word"
	case ReasonLink:
		return "Link Filter"
	case ReasonFlood:
		return "Flood"
	case ReasonRepeatWarnings:
		return "Repeat Warnings"
	default:
		return string(action.Kind)
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
