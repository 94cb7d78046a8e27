package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
)

func TestPageBindingsWin(t *testing.T) {
	r := NewRegistry()
	var ran []string
	r.AddGlobal(&Action{Name: "quit", Key: tcell.KeyRune, Rune: 'q', Description: "q:quit", Visible: true,
		Handler: func() { ran = append(ran, "global") }})
	r.AddPage("invite", &Action{Name: "back", Key: tcell.KeyRune, Rune: 'q', Description: "q:back", Visible: true,
		Handler: func() { ran = append(ran, "page") }})

	ev := tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)
	assert.True(t, r.HandleEvent("invite", ev))
	assert.True(t, r.HandleEvent("chat", ev))
	assert.Equal(t, []string{"page", "global"}, ran)

	assert.False(t, r.HandleEvent("chat", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)))
}

func TestHintsKeepOrder(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyCtrlC, Description: "^c:quit", Visible: true, Handler: func() {}})
	r.AddGlobal(&Action{Key: tcell.KeyCtrlL, Description: "hidden", Handler: func() {}})
	r.AddPage("chat", &Action{Key: tcell.KeyCtrlO, Description: "^o:invite", Visible: true, Handler: func() {}})

	assert.Equal(t, []string{"^o:invite", "^c:quit"}, r.Hints("chat"))
	assert.Equal(t, []string{"^c:quit"}, r.Hints("username"))
}
