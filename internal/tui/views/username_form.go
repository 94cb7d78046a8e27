package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// UsernameForm asks for the session username before the chat opens.
type UsernameForm struct {
	*tview.Flex
	input    *tview.InputField
	message  *tview.TextView
	onSubmit func(name string)
}

// NewUsernameForm creates the form.
func NewUsernameForm() *UsernameForm {
	input := tview.NewInputField().
		SetLabel("Username: ").
		SetFieldWidth(32)
	message := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	box := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(message, 1, 0, false)
	box.SetBorder(true).SetTitle(" Join the group ")

	f := &UsernameForm{
		Flex: tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
				AddItem(nil, 0, 1, false).
				AddItem(box, 4, 0, true).
				AddItem(nil, 0, 1, false), 48, 0, true).
			AddItem(nil, 0, 1, false),
		input:   input,
		message: message,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && f.onSubmit != nil {
			f.onSubmit(input.GetText())
		}
	})

	return f
}

// Input returns the focusable field.
func (f *UsernameForm) Input() *tview.InputField {
	return f.input
}

// SetOnSubmit sets the callback for Enter.
func (f *UsernameForm) SetOnSubmit(fn func(name string)) {
	f.onSubmit = fn
}

// ShowError shows msg under the field.
func (f *UsernameForm) ShowError(msg string) {
	f.message.SetText("[red]" + tview.Escape(msg) + "[-]")
}
