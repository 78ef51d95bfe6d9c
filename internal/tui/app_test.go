package tui

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/itemdeck/itemdeck/pkg/schema"
	"github.com/itemdeck/itemdeck/pkg/sdk"
)

// Update-level tests: feed messages into the shell and assert on the
// resulting screen and state. Commands are returned but never executed, so
// no network is involved.

func newTestApp() App {
	session := sdk.NewSession(nil, &sdk.MemCredentialStore{})
	return NewApp(session, nil)
}

func step(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := a.Update(msg)
	next, ok := model.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", model)
	}
	return next, cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testItem(id, title string, createdAt time.Time) schema.Item {
	return schema.Item{
		ID:          id,
		Title:       title,
		Description: "d",
		Status:      schema.StatusPending,
		CreatedAt:   createdAt,
		OwnerID:     "u1",
	}
}

func authenticatedApp(t *testing.T, items []schema.Item) App {
	t.Helper()
	a := newTestApp()
	a, _ = step(t, a, sessionResolvedMsg{snap: sdk.SessionSnapshot{
		State:    sdk.StateAuthenticated,
		Identity: schema.Identity{ID: "u1", Name: "Ada", Email: "ada@example.com"},
	}})
	a, _ = step(t, a, itemsLoadedMsg{items: items})
	return a
}

func TestResolveRoutesToLogin(t *testing.T) {
	a := newTestApp()
	if a.screen != screenLoading {
		t.Fatalf("expected loading start, got %d", a.screen)
	}

	a, _ = step(t, a, sessionResolvedMsg{snap: sdk.SessionSnapshot{State: sdk.StateUnauthenticated}})
	if a.screen != screenLogin {
		t.Errorf("unauthenticated resolve must land on login, got %d", a.screen)
	}
}

func TestResolveRoutesToDashboard(t *testing.T) {
	a := newTestApp()
	identity := schema.Identity{ID: "u1", Email: "ada@example.com"}

	a, cmd := step(t, a, sessionResolvedMsg{snap: sdk.SessionSnapshot{
		State:    sdk.StateAuthenticated,
		Identity: identity,
	}})
	if a.screen != screenDashboard {
		t.Fatalf("authenticated resolve must land on dashboard, got %d", a.screen)
	}
	if a.dash.identity != identity {
		t.Errorf("identity not carried to dashboard: %+v", a.dash.identity)
	}
	if !a.busy || cmd == nil {
		t.Error("entering the dashboard must kick off an item fetch")
	}
}

func TestSignUpFlowScreens(t *testing.T) {
	a := newTestApp()
	a, _ = step(t, a, sessionResolvedMsg{snap: sdk.SessionSnapshot{State: sdk.StateUnauthenticated}})

	// ctrl+n on login opens registration.
	a, _ = step(t, a, keyMsg("ctrl+n"))
	if a.screen != screenRegister {
		t.Fatalf("expected register screen, got %d", a.screen)
	}

	// A pending sign-up moves to the verification screen.
	a, _ = step(t, a, signUpPendingMsg{email: "ada@example.com"})
	if a.screen != screenVerify || a.verify.email != "ada@example.com" {
		t.Fatalf("expected verify screen for ada@example.com, got screen=%d email=%q", a.screen, a.verify.email)
	}

	// Verification lands on the dashboard.
	a, _ = step(t, a, verifiedMsg{identity: schema.Identity{Email: "ada@example.com"}})
	if a.screen != screenDashboard {
		t.Errorf("expected dashboard after verification, got %d", a.screen)
	}
}

func TestSignOutResetsToLogin(t *testing.T) {
	a := authenticatedApp(t, []schema.Item{testItem("i1", "Task", time.Now())})

	a, _ = step(t, a, signedOutMsg{})
	if a.screen != screenLogin {
		t.Fatalf("expected login after sign-out, got %d", a.screen)
	}
	if len(a.dash.items) != 0 {
		t.Error("sign-out must drop the previous user's items")
	}
}

func TestItemsLoaded(t *testing.T) {
	a := authenticatedApp(t, nil)
	if !a.dash.loaded {
		t.Fatal("dashboard must be marked loaded")
	}
	if len(a.dash.items) != 0 {
		t.Errorf("expected empty list, got %+v", a.dash.items)
	}
}

func TestStaleItemsDropped(t *testing.T) {
	a := newTestApp()
	a, _ = step(t, a, sessionResolvedMsg{snap: sdk.SessionSnapshot{State: sdk.StateUnauthenticated}})

	// A fetch that completes after returning to login must not leak in.
	a, _ = step(t, a, itemsLoadedMsg{items: []schema.Item{testItem("i1", "ghost", time.Now())}})
	if a.dash.loaded || len(a.dash.items) != 0 {
		t.Errorf("stale items applied outside the dashboard: %+v", a.dash.items)
	}
}

func TestItemSavedCreatePrepends(t *testing.T) {
	a := authenticatedApp(t, []schema.Item{testItem("i1", "old", time.Now().Add(-time.Hour))})

	a, _ = step(t, a, itemSavedMsg{item: testItem("i2", "new", time.Now()), created: true})
	if len(a.dash.items) != 2 || a.dash.items[0].ID != "i2" {
		t.Errorf("created item must appear first: %+v", a.dash.items)
	}
	if a.dash.cursor != 0 {
		t.Errorf("cursor must move to the new item, got %d", a.dash.cursor)
	}
	if a.notice != "item created" || a.noticeIsErr {
		t.Errorf("unexpected notice: %q err=%v", a.notice, a.noticeIsErr)
	}
}

func TestItemSavedUpdateInPlace(t *testing.T) {
	base := time.Now()
	a := authenticatedApp(t, []schema.Item{
		testItem("i1", "first", base),
		testItem("i2", "second", base.Add(-time.Minute)),
	})

	edited := testItem("i2", "second (edited)", base.Add(-time.Minute))
	edited.Status = schema.StatusActive
	a, _ = step(t, a, itemSavedMsg{item: edited, created: false})

	if len(a.dash.items) != 2 {
		t.Fatalf("update must not change the item count: %+v", a.dash.items)
	}
	if a.dash.items[1].Title != "second (edited)" || a.dash.items[1].Status != schema.StatusActive {
		t.Errorf("item not patched in place: %+v", a.dash.items[1])
	}
}

func TestItemDeletedRemovesFromList(t *testing.T) {
	a := authenticatedApp(t, []schema.Item{
		testItem("i1", "keep", time.Now()),
		testItem("i2", "drop", time.Now()),
	})
	a.dash.cursor = 1

	a, _ = step(t, a, itemDeletedMsg{id: "i2"})
	if len(a.dash.items) != 1 || a.dash.items[0].ID != "i1" {
		t.Errorf("delete did not remove the item: %+v", a.dash.items)
	}
	if a.dash.cursor != 0 {
		t.Errorf("cursor must be clamped, got %d", a.dash.cursor)
	}
}

func TestFailureShowsNoticeKeepsList(t *testing.T) {
	a := authenticatedApp(t, []schema.Item{testItem("i1", "keep", time.Now())})

	a, _ = step(t, a, opFailedMsg{err: errors.New("store unavailable")})
	if a.notice == "" || !a.noticeIsErr {
		t.Error("failure must surface as an error notice")
	}
	if len(a.dash.items) != 1 {
		t.Error("a failed operation must not change the list")
	}
	if a.screen != screenDashboard {
		t.Errorf("failure must not leave the dashboard, got %d", a.screen)
	}
}

func TestFetchFailureShowsEmptyState(t *testing.T) {
	a := newTestApp()
	a, _ = step(t, a, sessionResolvedMsg{snap: sdk.SessionSnapshot{
		State:    sdk.StateAuthenticated,
		Identity: schema.Identity{ID: "u1", Email: "ada@example.com"},
	}})

	// The initial fetch fails before anything was loaded.
	a, _ = step(t, a, opFailedMsg{err: errors.New("store unavailable")})
	if !a.dash.loaded {
		t.Error("a failed fetch must still conclude loading")
	}
	view := a.View()
	if !strings.Contains(view, "No items yet") {
		t.Error("expected the empty state instead of the loading spinner")
	}
	if !strings.Contains(view, "store unavailable") {
		t.Error("expected the failure notice alongside the empty state")
	}
}

func TestUnauthorizedFailureDropsToLogin(t *testing.T) {
	a := authenticatedApp(t, []schema.Item{testItem("i1", "x", time.Now())})

	a, _ = step(t, a, opFailedMsg{err: sdk.ErrUnauthorized})
	if a.screen != screenLogin {
		t.Errorf("expired session must return to login, got %d", a.screen)
	}
	if len(a.dash.items) != 0 {
		t.Error("expired session must drop the stale list")
	}
}

func TestFailureKeepsFormOpen(t *testing.T) {
	a := authenticatedApp(t, nil)

	// Open the create form and simulate a failed save.
	a, _ = step(t, a, keyMsg("n"))
	if a.dash.form == nil {
		t.Fatal("n must open the form")
	}
	a, _ = step(t, a, opFailedMsg{err: errors.New("store unavailable")})
	if a.dash.form == nil {
		t.Fatal("form must stay open after a failed save")
	}
	if a.dash.form.errMsg == "" {
		t.Error("form must show the failure")
	}
}

func TestLoginValidatesBeforeSubmit(t *testing.T) {
	a := newTestApp()
	a, _ = step(t, a, sessionResolvedMsg{snap: sdk.SessionSnapshot{State: sdk.StateUnauthenticated}})

	a, cmd := step(t, a, keyMsg("enter"))
	if cmd != nil || a.busy {
		t.Error("empty login must not submit")
	}
	if a.login.errMsg == "" {
		t.Error("empty login must show a validation message")
	}
}

func TestFormValidatesBeforeSubmit(t *testing.T) {
	a := authenticatedApp(t, nil)
	a, _ = step(t, a, keyMsg("n"))

	a, cmd := step(t, a, keyMsg("enter"))
	if cmd != nil || a.busy {
		t.Error("empty form must not submit")
	}
	if a.dash.form == nil || a.dash.form.errMsg != "title is required" {
		t.Errorf("expected title validation, got %+v", a.dash.form)
	}

	// Fill the title only: description is still required.
	a.dash.form.title.SetValue("Task 1")
	a, cmd = step(t, a, keyMsg("enter"))
	if cmd != nil || a.busy {
		t.Error("form without description must not submit")
	}
	if a.dash.form.errMsg != "description is required" {
		t.Errorf("expected description validation, got %q", a.dash.form.errMsg)
	}

	// Complete form submits.
	a.dash.form.description.SetValue("details")
	a, cmd = step(t, a, keyMsg("enter"))
	if cmd == nil || !a.busy {
		t.Error("complete form must submit")
	}
}

func TestFormEscCancels(t *testing.T) {
	a := authenticatedApp(t, nil)
	a, _ = step(t, a, keyMsg("n"))
	a.dash.form.title.SetValue("half-typed")

	a, _ = step(t, a, keyMsg("esc"))
	if a.dash.form != nil {
		t.Error("esc must close the form without saving")
	}
}

func TestFormStatusCycle(t *testing.T) {
	a := authenticatedApp(t, nil)
	a, _ = step(t, a, keyMsg("n"))

	// Move focus to the status selector (title -> description -> status).
	a, _ = step(t, a, keyMsg("tab"))
	a, _ = step(t, a, keyMsg("tab"))
	if a.dash.form.focus != 2 {
		t.Fatalf("expected status focus, got %d", a.dash.form.focus)
	}

	if got := statusOrder[a.dash.form.statusIdx]; got != schema.StatusPending {
		t.Fatalf("expected pending default, got %s", got)
	}
	a, _ = step(t, a, keyMsg("right"))
	if got := statusOrder[a.dash.form.statusIdx]; got != schema.StatusActive {
		t.Errorf("expected active after one step, got %s", got)
	}
}

func TestDashboardNavigation(t *testing.T) {
	a := authenticatedApp(t, []schema.Item{
		testItem("i1", "a", time.Now()),
		testItem("i2", "b", time.Now()),
		testItem("i3", "c", time.Now()),
	})

	a, _ = step(t, a, keyMsg("j"))
	a, _ = step(t, a, keyMsg("j"))
	if a.dash.cursor != 2 {
		t.Errorf("expected cursor 2, got %d", a.dash.cursor)
	}
	// Does not run past the end.
	a, _ = step(t, a, keyMsg("j"))
	if a.dash.cursor != 2 {
		t.Errorf("cursor ran past the end: %d", a.dash.cursor)
	}
	a, _ = step(t, a, keyMsg("k"))
	if a.dash.cursor != 1 {
		t.Errorf("expected cursor 1, got %d", a.dash.cursor)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 80); got != "short" {
		t.Errorf("short strings must pass through, got %q", got)
	}
	if got := truncate("a very long description indeed", 10); got != "a very ..." {
		t.Errorf("unexpected truncation: %q", got)
	}
	// Cuts must land on rune boundaries, not bytes.
	got := truncate("héllo wörld with a tail", 10)
	if got != "héllo w..." {
		t.Errorf("unexpected multi-byte truncation: %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation produced invalid UTF-8: %q", got)
	}
}
