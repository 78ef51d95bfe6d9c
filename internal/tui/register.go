package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type registerModel struct {
	inputs []textinput.Model // name, email, password, confirm
	focus  int
	errMsg string
}

func newRegisterModel() registerModel {
	mk := func(placeholder string, secret bool) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.Prompt = "> "
		ti.CharLimit = 128
		if secret {
			ti.EchoMode = textinput.EchoPassword
		}
		return ti
	}
	inputs := []textinput.Model{
		mk("Full name", false),
		mk("you@example.com", false),
		mk("password", true),
		mk("confirm password", true),
	}
	inputs[0].Focus()
	return registerModel{inputs: inputs}
}

func (m registerModel) update(msg tea.Msg, a *App) (registerModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			m.focus = (m.focus + 1) % len(m.inputs)
			m.syncFocus()
			return m, nil
		case "shift+tab", "up":
			m.focus = (m.focus + len(m.inputs) - 1) % len(m.inputs)
			m.syncFocus()
			return m, nil
		case "ctrl+n", "esc":
			a.screen = screenLogin
			a.login = newLoginModel()
			return m, nil
		case "enter":
			if a.busy {
				return m, nil
			}
			name := strings.TrimSpace(m.inputs[0].Value())
			email := strings.TrimSpace(m.inputs[1].Value())
			password := m.inputs[2].Value()
			confirm := m.inputs[3].Value()
			// Caught here, before anything reaches the wire.
			if name == "" || email == "" || password == "" || confirm == "" {
				m.errMsg = "please fill in all fields"
				return m, nil
			}
			if password != confirm {
				m.errMsg = "passwords do not match"
				return m, nil
			}
			m.errMsg = ""
			a.busy = true
			return m, tea.Batch(a.spinner.Tick, a.signUpCmd(name, email, password, confirm))
		}
	}

	var cmds []tea.Cmd
	for i := range m.inputs {
		var cmd tea.Cmd
		m.inputs[i], cmd = m.inputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *registerModel) syncFocus() {
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m registerModel) view(busy bool, sp spinner.Model) string {
	labels := []string{"Full name", "Email", "Password", "Confirm password"}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Create account") + "\n\n")
	for i, ti := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]) + "\n" + ti.View() + "\n\n")
	}
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg) + "\n")
	}
	if busy {
		b.WriteString(sp.View() + " creating account...\n")
	}
	b.WriteString(helpStyle.Render("enter sign up • tab next field • esc back to sign in"))
	return boxStyle.Render(b.String())
}
