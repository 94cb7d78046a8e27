package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/huddle/internal/status"
	"github.com/rivo/tview"
)

// StatusBar shows profile, user, sync state, and transient messages.
type StatusBar struct {
	*tview.TextView
	profile  string
	username string
	state    status.State
	flash    string
	hints    []string
}

// NewStatusBar creates a status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, state: status.Idle}
}

// SetProfile updates the profile name.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetUsername updates the username.
func (sb *StatusBar) SetUsername(name string) {
	sb.username = name
	sb.render()
}

// SetState updates the sync state indicator.
func (sb *StatusBar) SetState(s status.State) {
	sb.state = s
	sb.render()
}

// SetFlash sets the transient message; empty clears it.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

// SetHints sets the key hints shown at the end of the bar.
func (sb *StatusBar) SetHints(hints []string) {
	sb.hints = hints
	sb.render()
}

func (sb *StatusBar) render() {
	sb.SetText(statusLine(sb.profile, sb.username, sb.state, sb.flash, sb.hints, time.Now()))
}

func statusLine(profile, username string, state status.State, flash string, hints []string, now time.Time) string {
	line := fmt.Sprintf(" [::b]%s[-:-:-]", tview.Escape(profile))
	if username != "" {
		line += " as " + tview.Escape(sanitize(username))
	}
	line += fmt.Sprintf(" | %s%s[-] | %s", stateColor(state), state, now.Format("15:04"))
	if flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", tview.Escape(flash))
	}
	if len(hints) > 0 {
		line += " | [::d]" + strings.Join(hints, " ") + "[-:-:-]"
	}
	return line
}

func stateColor(s status.State) string {
	switch s {
	case status.Live:
		return "[green]"
	case status.Subscribing:
		return "[yellow]"
	case status.Degraded:
		return "[red]"
	default:
		return "[gray]"
	}
}
