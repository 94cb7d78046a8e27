package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/huddle/internal/remote"
	"github.com/rivo/tview"
)

// MessageView shows the group's messages, oldest first, in snapshot order.
type MessageView struct {
	*tview.TextView
	self string
}

// NewMessageView creates an empty message view.
func NewMessageView() *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &MessageView{TextView: tv}
}

// SetSelf marks username's messages as the participant's own.
func (mv *MessageView) SetSelf(username string) {
	mv.self = username
}

// Update replaces the rendered list with msgs and scrolls to the newest.
func (mv *MessageView) Update(msgs []remote.Message) {
	mv.SetText(formatMessages(msgs, mv.self))
	mv.SetTitle(fmt.Sprintf(" Messages (%d) ", len(msgs)))
	mv.ScrollToEnd()
}

func formatMessages(msgs []remote.Message, self string) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(formatMessage(m, self))
	}
	return b.String()
}

// formatMessage renders one message. The time label is the sender's, as
// stored.
func formatMessage(m remote.Message, self string) string {
	color := "aqua"
	if self != "" && m.Username == self {
		color = "green"
	}
	name := tview.Escape(sanitize(m.Username))
	if name == "" {
		name = "?"
	}
	return fmt.Sprintf("[%s::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
		color, name, tview.Escape(sanitize(m.Time)), tview.Escape(sanitize(m.Text)))
}
