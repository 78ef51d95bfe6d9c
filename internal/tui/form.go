package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/itemdeck/itemdeck/pkg/schema"
)

var statusOrder = []schema.Status{
	schema.StatusPending,
	schema.StatusActive,
	schema.StatusInactive,
}

// formModel creates or edits a single item. It stays open on failure so the
// user can retry without re-entering anything.
type formModel struct {
	existing    *schema.Item // nil when creating
	title       textinput.Model
	description textinput.Model
	statusIdx   int
	focus       int // 0 title, 1 description, 2 status
	errMsg      string
}

func newFormModel(existing *schema.Item) formModel {
	title := textinput.New()
	title.Placeholder = "Item title"
	title.Prompt = "> "
	title.CharLimit = 200
	title.Focus()

	description := textinput.New()
	description.Placeholder = "Item description"
	description.Prompt = "> "
	description.CharLimit = 500

	m := formModel{existing: existing, title: title, description: description}
	if existing != nil {
		m.title.SetValue(existing.Title)
		m.description.SetValue(existing.Description)
		for i, s := range statusOrder {
			if s == existing.Status {
				m.statusIdx = i
			}
		}
	}
	return m
}

func (m *formModel) update(msg tea.Msg, a *App) (*formModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			if a.busy {
				return m, nil
			}
			return nil, nil // close without saving
		case "tab", "down":
			m.focus = (m.focus + 1) % 3
			m.syncFocus()
			return m, nil
		case "shift+tab", "up":
			m.focus = (m.focus + 2) % 3
			m.syncFocus()
			return m, nil
		case "left", "right":
			if m.focus == 2 {
				if key.String() == "right" {
					m.statusIdx = (m.statusIdx + 1) % len(statusOrder)
				} else {
					m.statusIdx = (m.statusIdx + len(statusOrder) - 1) % len(statusOrder)
				}
				return m, nil
			}
		case "enter":
			if a.busy {
				return m, nil
			}
			title := strings.TrimSpace(m.title.Value())
			description := strings.TrimSpace(m.description.Value())
			if title == "" {
				m.errMsg = "title is required"
				return m, nil
			}
			if description == "" {
				m.errMsg = "description is required"
				return m, nil
			}
			m.errMsg = ""
			a.busy = true
			return m, tea.Batch(a.spinner.Tick,
				a.saveItemCmd(m.existing, title, description, statusOrder[m.statusIdx]))
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	cmds = append(cmds, cmd)
	m.description, cmd = m.description.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *formModel) syncFocus() {
	m.title.Blur()
	m.description.Blur()
	switch m.focus {
	case 0:
		m.title.Focus()
	case 1:
		m.description.Focus()
	}
}

func (m *formModel) view(busy bool, sp spinner.Model) string {
	var b strings.Builder
	heading := "Create item"
	if m.existing != nil {
		heading = "Edit item"
	}
	b.WriteString(titleStyle.Render(heading) + "\n\n")
	b.WriteString(labelStyle.Render("Title") + "\n" + m.title.View() + "\n\n")
	b.WriteString(labelStyle.Render("Description") + "\n" + m.description.View() + "\n\n")

	b.WriteString(labelStyle.Render("Status") + "\n")
	var parts []string
	for i, s := range statusOrder {
		label := string(s)
		if i == m.statusIdx {
			label = selectedStyle.Render("[" + label + "]")
		} else {
			label = subtleStyle.Render(" " + label + " ")
		}
		parts = append(parts, label)
	}
	marker := "  "
	if m.focus == 2 {
		marker = selectedStyle.Render("> ")
	}
	b.WriteString(marker + strings.Join(parts, " ") + "\n")

	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}
	if busy {
		b.WriteString("\n" + sp.View() + " saving...\n")
	}
	b.WriteString(helpStyle.Render("enter save • tab next field • ←/→ change status • esc cancel"))
	return boxStyle.Render(b.String())
}
