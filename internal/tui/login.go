package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type loginModel struct {
	email    textinput.Model
	password textinput.Model
	focus    int
	errMsg   string
}

func newLoginModel() loginModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "> "
	email.CharLimit = 128
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "> "
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword

	return loginModel{email: email, password: password}
}

func (m loginModel) update(msg tea.Msg, a *App) (loginModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = (m.focus + 1) % 2
			m.syncFocus()
			return m, nil
		case "ctrl+n":
			a.screen = screenRegister
			a.register = newRegisterModel()
			return m, nil
		case "enter":
			if a.busy {
				return m, nil
			}
			email := strings.TrimSpace(m.email.Value())
			password := m.password.Value()
			if email == "" || password == "" {
				m.errMsg = "email and password are required"
				return m, nil
			}
			m.errMsg = ""
			a.busy = true
			return m, tea.Batch(a.spinner.Tick, a.signInCmd(email, password))
		case "esc":
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.email, cmd = m.email.Update(msg)
	cmds = append(cmds, cmd)
	m.password, cmd = m.password.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *loginModel) syncFocus() {
	if m.focus == 0 {
		m.email.Focus()
		m.password.Blur()
	} else {
		m.email.Blur()
		m.password.Focus()
	}
}

func (m loginModel) view(busy bool, sp spinner.Model) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in") + "\n\n")
	b.WriteString(labelStyle.Render("Email") + "\n" + m.email.View() + "\n\n")
	b.WriteString(labelStyle.Render("Password") + "\n" + m.password.View() + "\n")
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}
	if busy {
		b.WriteString("\n" + sp.View() + " signing in...\n")
	}
	b.WriteString(helpStyle.Render("enter sign in • tab next field • ctrl+n create account • esc quit"))
	return boxStyle.Render(b.String())
}
