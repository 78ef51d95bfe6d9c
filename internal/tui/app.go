// Package tui is the terminal client: a Bubble Tea program whose screens are
// gated purely by the authentication session state.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/itemdeck/itemdeck/pkg/schema"
	"github.com/itemdeck/itemdeck/pkg/sdk"
)

const requestTimeout = 15 * time.Second

type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenRegister
	screenVerify
	screenDashboard
)

// Messages produced by SDK commands.
type (
	sessionResolvedMsg struct{ snap sdk.SessionSnapshot }
	signedInMsg        struct{ identity schema.Identity }
	signUpPendingMsg   struct{ email string }
	verifiedMsg        struct{ identity schema.Identity }
	signedOutMsg       struct{}
	itemsLoadedMsg     struct{ items []schema.Item }
	itemSavedMsg       struct {
		item    schema.Item
		created bool
	}
	itemDeletedMsg struct{ id string }
	opFailedMsg    struct{ err error }
)

// App is the shell. Which screen renders is a pure function of the session
// state: exactly one of loading, login, register, verify or dashboard.
type App struct {
	session *sdk.Session
	repo    sdk.ItemRepository

	screen  screen
	spinner spinner.Model
	// busy guards against double submission while an SDK call is in flight.
	busy        bool
	notice      string
	noticeIsErr bool
	width       int

	login    loginModel
	register registerModel
	verify   verifyModel
	dash     dashModel
}

// NewApp builds the shell around a session store and an item repository.
func NewApp(session *sdk.Session, repo sdk.ItemRepository) App {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return App{
		session:  session,
		repo:     repo,
		screen:   screenLoading,
		spinner:  sp,
		login:    newLoginModel(),
		register: newRegisterModel(),
		verify:   newVerifyModel(),
		dash:     newDashModel(),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.resolveSessionCmd())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case spinner.TickMsg:
		if !a.busy && a.screen != screenLoading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.session.Dispose()
			return a, tea.Quit
		}

	case sessionResolvedMsg:
		a.busy = false
		if msg.snap.State == sdk.StateAuthenticated {
			return a.enterDashboard(msg.snap.Identity)
		}
		a.screen = screenLogin
		a.login = newLoginModel()
		return a, nil

	case signedInMsg:
		a.busy = false
		a.clearNotice()
		return a.enterDashboard(msg.identity)

	case signUpPendingMsg:
		a.busy = false
		a.clearNotice()
		a.screen = screenVerify
		a.verify = newVerifyModel()
		a.verify.email = msg.email
		return a, nil

	case verifiedMsg:
		a.busy = false
		a.setNotice("account verified, welcome!", false)
		return a.enterDashboard(msg.identity)

	case signedOutMsg:
		a.busy = false
		a.clearNotice()
		a.screen = screenLogin
		a.login = newLoginModel()
		a.dash = newDashModel()
		return a, nil

	case itemsLoadedMsg:
		a.busy = false
		// A fetch finishing after sign-out is simply dropped.
		if a.screen != screenDashboard {
			return a, nil
		}
		a.dash.setItems(msg.items)
		return a, nil

	case itemSavedMsg:
		a.busy = false
		if a.screen != screenDashboard {
			return a, nil
		}
		a.dash.applySaved(msg.item, msg.created)
		if msg.created {
			a.setNotice("item created", false)
		} else {
			a.setNotice("item updated", false)
		}
		return a, nil

	case itemDeletedMsg:
		a.busy = false
		if a.screen != screenDashboard {
			return a, nil
		}
		a.dash.removeItem(msg.id)
		a.setNotice("item deleted", false)
		return a, nil

	case opFailedMsg:
		a.busy = false
		return a.handleFailure(msg.err)
	}

	// Everything else (keys, blinks) goes to the active screen.
	return a.routeToScreen(msg)
}

func (a App) View() string {
	var body string
	switch a.screen {
	case screenLoading:
		body = boxStyle.Render(a.spinner.View() + " resolving session...")
	case screenLogin:
		body = a.login.view(a.busy, a.spinner)
	case screenRegister:
		body = a.register.view(a.busy, a.spinner)
	case screenVerify:
		body = a.verify.view(a.busy, a.spinner)
	case screenDashboard:
		body = a.dash.view(a.busy, a.spinner, a.width)
	}

	if a.notice != "" {
		style := noticeStyle
		if a.noticeIsErr {
			style = errorStyle
		}
		body += "\n" + style.Render(a.notice)
	}
	return body + "\n"
}

// --- routing ---

func (a App) routeToScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.screen {
	case screenLogin:
		a.login, cmd = a.login.update(msg, &a)
	case screenRegister:
		a.register, cmd = a.register.update(msg, &a)
	case screenVerify:
		a.verify, cmd = a.verify.update(msg, &a)
	case screenDashboard:
		a.dash, cmd = a.dash.update(msg, &a)
	}
	return a, cmd
}

func (a App) enterDashboard(identity schema.Identity) (tea.Model, tea.Cmd) {
	a.screen = screenDashboard
	a.dash = newDashModel()
	a.dash.identity = identity
	a.busy = true
	return a, tea.Batch(a.spinner.Tick, a.fetchItemsCmd())
}

// handleFailure surfaces errors as transient notices; an expired session
// drops back to the login screen.
func (a App) handleFailure(err error) (tea.Model, tea.Cmd) {
	if errors.Is(err, sdk.ErrUnauthorized) && a.screen == screenDashboard {
		a.setNotice("session expired, please sign in again", true)
		a.screen = screenLogin
		a.login = newLoginModel()
		a.dash = newDashModel()
		return a, nil
	}

	switch a.screen {
	case screenLogin:
		a.login.errMsg = err.Error()
	case screenRegister:
		a.register.errMsg = err.Error()
	case screenVerify:
		a.verify.errMsg = err.Error()
	case screenDashboard:
		if a.dash.form != nil {
			// Form stays open so nothing has to be re-entered.
			a.dash.form.errMsg = err.Error()
		} else {
			// The fetch is over either way; the list must not stay on
			// the spinner.
			a.dash.loaded = true
			a.setNotice(err.Error(), true)
		}
	default:
		a.setNotice(err.Error(), true)
	}
	return a, nil
}

func (a *App) setNotice(text string, isErr bool) {
	a.notice = text
	a.noticeIsErr = isErr
}

func (a *App) clearNotice() {
	a.notice = ""
	a.noticeIsErr = false
}

// --- SDK commands ---

func (a App) resolveSessionCmd() tea.Cmd {
	session := a.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_ = session.Resolve(ctx)
		return sessionResolvedMsg{snap: session.Snapshot()}
	}
}

func (a App) signInCmd(email, password string) tea.Cmd {
	session := a.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := session.SignIn(ctx, email, password); err != nil {
			return opFailedMsg{err: err}
		}
		identity, _ := session.CurrentIdentity()
		return signedInMsg{identity: identity}
	}
}

func (a App) signUpCmd(name, email, password, confirm string) tea.Cmd {
	session := a.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := session.SignUp(ctx, name, email, password, confirm); err != nil {
			return opFailedMsg{err: err}
		}
		return signUpPendingMsg{email: email}
	}
}

func (a App) verifyCmd(code string) tea.Cmd {
	session := a.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := session.ConfirmVerification(ctx, code); err != nil {
			return opFailedMsg{err: err}
		}
		identity, _ := session.CurrentIdentity()
		return verifiedMsg{identity: identity}
	}
}

func (a App) signOutCmd() tea.Cmd {
	session := a.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_ = session.SignOut(ctx)
		return signedOutMsg{}
	}
}

func (a App) fetchItemsCmd() tea.Cmd {
	repo := a.repo
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		items, err := repo.List(ctx)
		if err != nil {
			return opFailedMsg{err: err}
		}
		return itemsLoadedMsg{items: items}
	}
}

func (a App) saveItemCmd(existing *schema.Item, title, description string, status schema.Status) tea.Cmd {
	repo := a.repo
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if existing == nil {
			item, err := repo.Create(ctx, title, description, status)
			if err != nil {
				return opFailedMsg{err: err}
			}
			return itemSavedMsg{item: item, created: true}
		}
		item, err := repo.Update(ctx, existing.ID, title, description, status)
		if err != nil {
			return opFailedMsg{err: err}
		}
		return itemSavedMsg{item: item, created: false}
	}
}

func (a App) deleteItemCmd(id string) tea.Cmd {
	repo := a.repo
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := repo.Delete(ctx, id); err != nil {
			return opFailedMsg{err: err}
		}
		return itemDeletedMsg{id: id}
	}
}
