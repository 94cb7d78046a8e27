package views

import (
	"fmt"

	"github.com/matheus3301/huddle/internal/invite"
	"github.com/rivo/tview"
)

// InviteView shows the profile's invite link and its QR code.
type InviteView struct {
	*tview.TextView
}

// NewInviteView creates the view.
func NewInviteView() *InviteView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true).SetTitle(" Invite ")
	return &InviteView{TextView: tv}
}

// ShowLink renders link with its QR code.
func (iv *InviteView) ShowLink(link string) {
	qr, err := invite.QR(link)
	if err != nil {
		iv.ShowMessage(err.Error())
		return
	}
	iv.SetText(fmt.Sprintf("\nScan or share to join:\n\n%s\n%s\n\n[::d]esc to go back[-:-:-]", qr, tview.Escape(link)))
}

// ShowMessage replaces the content with msg.
func (iv *InviteView) ShowMessage(msg string) {
	iv.SetText(fmt.Sprintf("\n\n[yellow]%s[-]\n\n[::d]esc to go back[-:-:-]", tview.Escape(msg)))
}
