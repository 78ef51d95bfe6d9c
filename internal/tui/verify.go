package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// verifyModel is the "check your email" screen shown after sign-up, until
// the emailed code confirms the account.
type verifyModel struct {
	email  string
	code   textinput.Model
	errMsg string
}

func newVerifyModel() verifyModel {
	code := textinput.New()
	code.Placeholder = "123456"
	code.Prompt = "> "
	code.CharLimit = 6
	code.Focus()
	return verifyModel{code: code}
}

func (m verifyModel) update(msg tea.Msg, a *App) (verifyModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			a.screen = screenLogin
			a.login = newLoginModel()
			return m, nil
		case "enter":
			if a.busy {
				return m, nil
			}
			code := strings.TrimSpace(m.code.Value())
			if code == "" {
				m.errMsg = "enter the code from the email"
				return m, nil
			}
			m.errMsg = ""
			a.busy = true
			return m, tea.Batch(a.spinner.Tick, a.verifyCmd(code))
		}
	}

	var cmd tea.Cmd
	m.code, cmd = m.code.Update(msg)
	return m, cmd
}

func (m verifyModel) view(busy bool, sp spinner.Model) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Check your email") + "\n\n")
	b.WriteString("We sent a verification code to " + selectedStyle.Render(m.email) + "\n\n")
	b.WriteString(labelStyle.Render("Verification code") + "\n" + m.code.View() + "\n")
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}
	if busy {
		b.WriteString("\n" + sp.View() + " verifying...\n")
	}
	b.WriteString(helpStyle.Render("enter verify • esc back to sign in"))
	return boxStyle.Render(b.String())
}
