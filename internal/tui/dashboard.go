package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/itemdeck/itemdeck/pkg/schema"
)

// dashModel renders the item list and hosts the create/edit form.
type dashModel struct {
	identity schema.Identity
	items    []schema.Item
	cursor   int
	loaded   bool
	form     *formModel
}

func newDashModel() dashModel {
	return dashModel{}
}

func (m *dashModel) setItems(items []schema.Item) {
	m.items = items
	m.loaded = true
	if m.cursor >= len(items) {
		m.cursor = max(0, len(items)-1)
	}
}

// applySaved patches the local copy so the change is visible without a full
// re-fetch: updates in place, inserts new items at the top (newest first).
func (m *dashModel) applySaved(item schema.Item, created bool) {
	m.form = nil
	if !created {
		for i := range m.items {
			if m.items[i].ID == item.ID {
				m.items[i] = item
				return
			}
		}
		return
	}
	m.items = append([]schema.Item{item}, m.items...)
	m.cursor = 0
}

func (m *dashModel) removeItem(id string) {
	out := m.items[:0]
	for _, it := range m.items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	m.items = out
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

func (m dashModel) update(msg tea.Msg, a *App) (dashModel, tea.Cmd) {
	if m.form != nil {
		form, cmd := m.form.update(msg, a)
		m.form = form
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "esc":
		a.session.Dispose()
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "n":
		if !a.busy {
			f := newFormModel(nil)
			m.form = &f
		}
	case "e":
		if !a.busy && len(m.items) > 0 {
			item := m.items[m.cursor]
			f := newFormModel(&item)
			m.form = &f
		}
	case "d":
		if !a.busy && len(m.items) > 0 {
			a.busy = true
			return m, tea.Batch(a.spinner.Tick, a.deleteItemCmd(m.items[m.cursor].ID))
		}
	case "r":
		if !a.busy {
			a.busy = true
			a.clearNotice()
			return m, tea.Batch(a.spinner.Tick, a.fetchItemsCmd())
		}
	case "ctrl+l":
		if !a.busy {
			a.busy = true
			return m, tea.Batch(a.spinner.Tick, a.signOutCmd())
		}
	}
	return m, nil
}

func (m dashModel) view(busy bool, sp spinner.Model, width int) string {
	if m.form != nil {
		return m.form.view(busy, sp)
	}

	var b strings.Builder
	name := m.identity.Name
	if name == "" {
		name = m.identity.Email
	}
	b.WriteString(titleStyle.Render("Items") + subtleStyle.Render("  -  "+name) + "\n\n")

	switch {
	case !m.loaded:
		b.WriteString(sp.View() + " loading items...\n")
	case len(m.items) == 0:
		b.WriteString(subtleStyle.Render("No items yet. Press n to create your first item.") + "\n")
	default:
		for i, item := range m.items {
			prefix := "  "
			title := item.Title
			if i == m.cursor {
				prefix = selectedStyle.Render("> ")
				title = selectedStyle.Render(title)
			}
			b.WriteString(fmt.Sprintf("%s%s  %s\n", prefix, title, statusBadge(item.Status)))
			b.WriteString(subtleStyle.Render("    "+truncate(item.Description, max(20, width-8))) + "\n")
			b.WriteString(subtleStyle.Render("    created "+item.CreatedAt.Local().Format("2006-01-02 15:04")) + "\n")
		}
	}

	if busy && m.loaded {
		b.WriteString("\n" + sp.View() + " working...\n")
	}
	b.WriteString(helpStyle.Render("n new • e edit • d delete • r refresh • ctrl+l sign out • q quit"))
	return b.String()
}

// truncate cuts on rune boundaries so multi-byte text stays valid.
func truncate(s string, limit int) string {
	if limit <= 3 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
