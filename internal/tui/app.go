// Package tui is the terminal front end. It renders what chat.Client exposes
// and forwards the participant's input back to it.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/session"
	"github.com/matheus3301/huddle/internal/tui/keys"
	"github.com/matheus3301/huddle/internal/tui/model"
	"github.com/matheus3301/huddle/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// Page names.
const (
	pageUsername = "username"
	pageChat     = "chat"
	pageInvite   = "invite"
)

const flashFor = 5 * time.Second

// Config wires an App.
type Config struct {
	Client  *chat.Client
	Bus     *bus.Bus
	Logger  *zap.Logger
	Profile string
	// Invite returns the profile's invite link.
	Invite func() (string, error)
}

// App is the application shell.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	client    *chat.Client
	bus       *bus.Bus
	logger    *zap.Logger
	invite    func() (string, error)
	registry  *keys.Registry
	flash     *model.Flash
	statusBar *views.StatusBar
	userForm  *views.UsernameForm
	msgView   *views.MessageView
	composer  *views.Composer
	inviteV   *views.InviteView
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the TUI. The client must already be started.
func NewApp(cfg Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		client:    cfg.Client,
		bus:       cfg.Bus,
		logger:    cfg.Logger,
		invite:    cfg.Invite,
		registry:  keys.NewRegistry(),
		flash:     model.NewFlash(nil),
		statusBar: views.NewStatusBar(),
		userForm:  views.NewUsernameForm(),
		msgView:   views.NewMessageView(),
		composer:  views.NewComposer(),
		inviteV:   views.NewInviteView(),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetProfile(cfg.Profile)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Name: "quit", Key: tcell.KeyCtrlC,
		Description: "^c:quit", Visible: true,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddPage(pageChat, &keys.Action{
		Name: "invite", Key: tcell.KeyCtrlO,
		Description: "^o:invite", Visible: true,
		Handler: a.showInvite,
	})
	a.registry.AddPage(pageChat, &keys.Action{
		Name: "bottom", Key: tcell.KeyCtrlG,
		Description: "^g:bottom", Visible: true,
		Handler: func() { a.msgView.ScrollToEnd() },
	})
	a.registry.AddPage(pageInvite, &keys.Action{
		Name: "back", Key: tcell.KeyEscape,
		Description: "esc:back",
		Handler: a.showChat,
	})
}

func (a *App) setupCallbacks() {
	a.userForm.SetOnSubmit(func(name string) {
		if !a.client.SetUsername(name) {
			a.userForm.ShowError("username cannot be blank")
			return
		}
		a.msgView.SetSelf(a.client.Username())
		a.statusBar.SetUsername(a.client.Username())
		a.showChat()
	})

	a.composer.SetOnChange(a.client.SetDraftText)
	a.composer.SetOnSubmit(func() {
		go func() {
			if err := a.client.Submit(a.ctx); err != nil {
				a.setFlash("send failed: " + err.Error())
			}
		}()
	})
	a.composer.SetOnCommand(a.runCommand)

	a.client.OnChange(func(c session.Change) {
		// Listeners run on the writer's goroutine, which may be the UI one.
		go a.app.QueueUpdateDraw(func() { a.render(c) })
	})
}

func (a *App) render(c session.Change) {
	switch c {
	case session.MessagesChanged:
		a.msgView.Update(a.client.Messages())
	case session.DraftChanged:
		a.composer.Sync(a.client.Draft())
	case session.UsernameChanged:
		a.statusBar.SetUsername(a.client.Username())
	}
}

func (a *App) runCommand(line string) {
	cmd := ParseCommand(line)
	switch cmd.Name {
	case CmdQuit:
		a.app.Stop()
	case CmdInvite:
		a.showInvite()
	case CmdHelp:
		a.flash.Set("/invite share this group, /quit leave; "+strings.Join(a.registry.Hints(pageChat), " "), flashFor)
		a.statusBar.SetFlash(a.flash.Get())
	default:
		a.flash.Set("unknown command /"+cmd.Name, flashFor)
		a.statusBar.SetFlash(a.flash.Get())
	}
}

func (a *App) setupLayout() {
	chatFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.msgView, 0, 1, false).
		AddItem(a.composer, 1, 0, true)

	a.pages.AddPage(pageUsername, a.userForm, true, !a.client.UsernameSet())
	a.pages.AddPage(pageChat, chatFlex, true, a.client.UsernameSet())
	a.pages.AddPage(pageInvite, a.inviteV, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)
	if a.client.UsernameSet() {
		a.app.SetFocus(a.composer)
	} else {
		a.app.SetFocus(a.userForm.Input())
	}
	a.statusBar.SetHints(a.registry.Hints(pageUsername))

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		page, _ := a.pages.GetFrontPage()
		if a.registry.HandleEvent(page, event) {
			return nil
		}
		return event
	})
}

func (a *App) showChat() {
	a.pages.SwitchToPage(pageChat)
	a.app.SetFocus(a.composer)
	a.statusBar.SetHints(a.registry.Hints(pageChat))
	a.msgView.Update(a.client.Messages())
}

func (a *App) showInvite() {
	if a.invite == nil {
		a.inviteV.ShowMessage("invites are not available for this profile")
	} else if link, err := a.invite(); err != nil {
		a.inviteV.ShowMessage(err.Error())
	} else {
		a.inviteV.ShowLink(link)
	}
	a.pages.SwitchToPage(pageInvite)
	a.app.SetFocus(a.inviteV)
	a.statusBar.SetHints(a.registry.Hints(pageInvite))
}

func (a *App) setFlash(msg string) {
	a.flash.Set(msg, flashFor)
	a.app.QueueUpdateDraw(func() { a.statusBar.SetFlash(a.flash.Get()) })
}

// Run blocks until the participant quits.
func (a *App) Run() error {
	a.msgView.Update(a.client.Messages())
	a.statusBar.SetState(a.client.SyncState())
	a.watchEvents()
	a.startRefreshLoop()
	defer a.cancel()
	return a.app.Run()
}

// watchEvents surfaces failed submissions, which fire-and-forget mode only
// reports on the bus.
func (a *App) watchEvents() {
	if a.bus == nil {
		return
	}
	events, unsubscribe := a.bus.Subscribe("outbox.", 16)
	go func() {
		defer unsubscribe()
		for {
			select {
			case evt, ok := <-events:
				if !ok {
					return
				}
				if evt.Kind == bus.OutboxFailed {
					msg, _ := evt.Payload.(string)
					a.setFlash("send failed: " + msg)
				}
			case <-a.ctx.Done():
				return
			}
		}
	}()
}

func (a *App) startRefreshLoop() {
	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.app.QueueUpdateDraw(func() {
					a.statusBar.SetState(a.client.SyncState())
					a.statusBar.SetFlash(a.flash.Get())
				})
			case <-a.ctx.Done():
				return
			}
		}
	}()
}

// Stop shuts the TUI down.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
