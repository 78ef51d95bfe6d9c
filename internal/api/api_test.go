package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/itemdeck/itemdeck/internal/auth"
	"github.com/itemdeck/itemdeck/internal/engine"
	"github.com/itemdeck/itemdeck/pkg/schema"
)

// captureMailer remembers the last verification code instead of sending it.
type captureMailer struct {
	email string
	code  string
}

func (m *captureMailer) SendVerification(email, name, code string) error {
	m.email = email
	m.code = code
	return nil
}

func setupTestRouter() (*gin.Engine, *captureMailer) {
	gin.SetMode(gin.TestMode)
	mailer := &captureMailer{}
	h := &Handler{
		Store:  engine.NewMemStore(engine.Snapshot{}, nil),
		Mailer: mailer,
	}
	return NewRouter(h), mailer
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// registerVerified walks a user through signup and verification, returning a
// live session token.
func registerVerified(t *testing.T, r *gin.Engine, mailer *captureMailer, name, email, password string) string {
	t.Helper()

	w := doJSON(t, r, "POST", "/api/auth/signup", "", map[string]string{
		"name": name, "email": email, "password": password, "confirm_password": password,
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("signup: expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if mailer.code == "" {
		t.Fatal("signup did not mail a verification code")
	}

	w = doJSON(t, r, "POST", "/api/auth/verify", "", map[string]string{
		"email": email, "code": mailer.code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Token == "" {
		t.Fatal("verify returned no token")
	}
	return resp.Token
}

func TestSignUpVerifySignInFlow(t *testing.T) {
	r, mailer := setupTestRouter()
	registerVerified(t, r, mailer, "Ada", "ada@example.com", "s3cret")

	// Sign in with the now-verified account.
	w := doJSON(t, r, "POST", "/api/auth/signin", "", map[string]string{
		"email": "ada@example.com", "password": "s3cret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signin: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Wrong password.
	w = doJSON(t, r, "POST", "/api/auth/signin", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", w.Code)
	}
}

func TestSignInUnverified(t *testing.T) {
	r, _ := setupTestRouter()
	doJSON(t, r, "POST", "/api/auth/signup", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "s3cret", "confirm_password": "s3cret",
	})

	w := doJSON(t, r, "POST", "/api/auth/signin", "", map[string]string{
		"email": "ada@example.com", "password": "s3cret",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("unverified signin: expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSignUpPasswordMismatch(t *testing.T) {
	r, mailer := setupTestRouter()

	w := doJSON(t, r, "POST", "/api/auth/signup", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "one", "confirm_password": "two",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "password_mismatch" {
		t.Errorf("expected password_mismatch code, got %q", resp.Code)
	}
	// Nothing reached the store or the mailer.
	if mailer.code != "" {
		t.Error("mismatched signup must not mail a code")
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	r, mailer := setupTestRouter()
	registerVerified(t, r, mailer, "Ada", "ada@example.com", "s3cret")

	w := doJSON(t, r, "POST", "/api/auth/signup", "", map[string]string{
		"name": "Imposter", "email": "ada@example.com", "password": "x", "confirm_password": "x",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate email: expected 409, got %d", w.Code)
	}
}

func TestItemsRequireSession(t *testing.T) {
	r, _ := setupTestRouter()

	w := doJSON(t, r, "GET", "/api/items", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", w.Code)
	}
	w = doJSON(t, r, "GET", "/api/items", "bogus-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", w.Code)
	}
}

func TestItemCRUDAndOwnership(t *testing.T) {
	r, mailer := setupTestRouter()
	tokenA := registerVerified(t, r, mailer, "Owner A", "a@example.com", "pw-a")
	tokenB := registerVerified(t, r, mailer, "Owner B", "b@example.com", "pw-b")

	// A creates an item.
	w := doJSON(t, r, "POST", "/api/items", tokenA, map[string]string{
		"title": "Task 1", "description": "d", "status": "pending",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created schema.Item
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected generated id/createdAt: %+v", created)
	}

	// A sees exactly that item.
	w = doJSON(t, r, "GET", "/api/items", tokenA, nil)
	var listA []schema.Item
	json.Unmarshal(w.Body.Bytes(), &listA)
	if len(listA) != 1 || listA[0].Title != "Task 1" || listA[0].Status != schema.StatusPending {
		t.Fatalf("owner A list wrong: %+v", listA)
	}

	// B sees nothing.
	w = doJSON(t, r, "GET", "/api/items", tokenB, nil)
	var listB []schema.Item
	json.Unmarshal(w.Body.Bytes(), &listB)
	if len(listB) != 0 {
		t.Fatalf("owner B must not see A's items: %+v", listB)
	}

	// B cannot touch A's item: identical to an unknown id.
	w = doJSON(t, r, "PUT", "/api/items/"+created.ID, tokenB, map[string]string{
		"title": "stolen", "description": "d", "status": "active",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign update: expected 404, got %d", w.Code)
	}
	w = doJSON(t, r, "DELETE", "/api/items/"+created.ID, tokenB, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign delete: expected 404, got %d", w.Code)
	}

	// A edits the status; everything else stays put.
	w = doJSON(t, r, "PUT", "/api/items/"+created.ID, tokenA, map[string]string{
		"title": "Task 1", "description": "d", "status": "active",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, "GET", "/api/items", tokenA, nil)
	json.Unmarshal(w.Body.Bytes(), &listA)
	got := listA[0]
	if got.Status != schema.StatusActive || got.Title != "Task 1" || got.ID != created.ID ||
		!got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("status edit changed more than status: %+v", got)
	}

	// A deletes; a second delete is 404.
	w = doJSON(t, r, "DELETE", "/api/items/"+created.ID, tokenA, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = doJSON(t, r, "DELETE", "/api/items/"+created.ID, tokenA, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete: expected 404, got %d", w.Code)
	}
	w = doJSON(t, r, "GET", "/api/items", tokenA, nil)
	json.Unmarshal(w.Body.Bytes(), &listA)
	if len(listA) != 0 {
		t.Errorf("deleted item still listed: %+v", listA)
	}
}

func TestCreateItemValidationAtBoundary(t *testing.T) {
	r, mailer := setupTestRouter()
	token := registerVerified(t, r, mailer, "Ada", "ada@example.com", "pw")

	w := doJSON(t, r, "POST", "/api/items", token, map[string]string{
		"title": "", "description": "d",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty title: expected 400, got %d", w.Code)
	}
}

func TestUpdateUnknownItem(t *testing.T) {
	r, mailer := setupTestRouter()
	token := registerVerified(t, r, mailer, "Ada", "ada@example.com", "pw")

	w := doJSON(t, r, "PUT", "/api/items/no-such-id", token, map[string]string{
		"title": "t", "description": "d", "status": "active",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	r, mailer := setupTestRouter()
	token := registerVerified(t, r, mailer, "Ada", "ada@example.com", "pw")

	// Session restore returns the identity.
	w := doJSON(t, r, "GET", "/api/auth/session", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("session: expected 200, got %d", w.Code)
	}
	var identity schema.Identity
	json.Unmarshal(w.Body.Bytes(), &identity)
	if identity.Email != "ada@example.com" {
		t.Errorf("unexpected identity: %+v", identity)
	}

	// Sign out kills the token.
	w = doJSON(t, r, "POST", "/api/auth/signout", token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("signout: expected 204, got %d", w.Code)
	}
	w = doJSON(t, r, "GET", "/api/auth/session", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("after signout: expected 401, got %d", w.Code)
	}
}

var _ auth.Mailer = (*captureMailer)(nil)
