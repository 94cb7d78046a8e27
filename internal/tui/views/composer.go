package views

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Composer is the single-line input bound to the session draft.
type Composer struct {
	*tview.InputField
	onChange  func(text string)
	onSubmit  func()
	onCommand func(line string)
}

// NewComposer creates a composer.
func NewComposer() *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0).
		SetPlaceholder("message, or /help")

	c := &Composer{InputField: input}

	input.SetChangedFunc(func(text string) {
		if c.onChange != nil && !strings.HasPrefix(text, "/") {
			c.onChange(text)
		}
	})
	input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := c.GetText()
		if strings.HasPrefix(text, "/") {
			c.SetText("")
			if c.onCommand != nil {
				c.onCommand(strings.TrimPrefix(text, "/"))
			}
			return
		}
		if c.onSubmit != nil {
			c.onSubmit()
		}
	})

	return c
}

// SetOnChange sets the callback for every edit of a message draft. Command
// lines are not drafts and are not reported.
func (c *Composer) SetOnChange(fn func(text string)) {
	c.onChange = fn
}

// SetOnSubmit sets the callback for Enter on a draft. The composer does not
// clear itself; the draft is cleared by whoever owns it.
func (c *Composer) SetOnSubmit(fn func()) {
	c.onSubmit = fn
}

// SetOnCommand sets the callback for Enter on a line starting with '/'.
func (c *Composer) SetOnCommand(fn func(line string)) {
	c.onCommand = fn
}

// Sync shows draft unless the user is typing a command.
func (c *Composer) Sync(draft string) {
	text := c.GetText()
	if text == draft || strings.HasPrefix(text, "/") {
		return
	}
	c.SetText(draft)
}
