package sdk

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/itemdeck/itemdeck/pkg/schema"
)

// Client talks to an itemdeck daemon over HTTP. It implements AuthService
// and ItemRepository. Safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient builds a client for the daemon at baseURL (e.g.
// "http://localhost:7310"). If ITEMDECK_INSECURE_TLS is "true", certificate
// verification is skipped — for daemons running on a self-signed cert.
func NewClient(baseURL string) *Client {
	httpc := &http.Client{Timeout: 30 * time.Second}
	if os.Getenv("ITEMDECK_INSECURE_TLS") == "true" {
		httpc.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
	}
}

// SetToken installs the session token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently installed session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// --- AuthService ---

func (c *Client) SignIn(ctx context.Context, email, password string) (Credentials, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Credentials{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/api/auth/signin", map[string]string{
		"email":    email,
		"password": password,
	}, &creds)
	if err != nil {
		return Credentials{}, err
	}
	c.SetToken(creds.Token)
	return creds, nil
}

func (c *Client) SignUp(ctx context.Context, name, email, password, confirmPassword string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" || confirmPassword == "" {
		return fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if password != confirmPassword {
		return ErrPasswordMismatch
	}
	return c.do(ctx, http.MethodPost, "/api/auth/signup", map[string]string{
		"name":             name,
		"email":            email,
		"password":         password,
		"confirm_password": confirmPassword,
	}, nil)
}

func (c *Client) Verify(ctx context.Context, email, code string) (Credentials, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return Credentials{}, fmt.Errorf("%w: email and code are required", ErrValidation)
	}
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/api/auth/verify", map[string]string{
		"email": email,
		"code":  code,
	}, &creds)
	if err != nil {
		return Credentials{}, err
	}
	c.SetToken(creds.Token)
	return creds, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) CurrentSession(ctx context.Context) (schema.Identity, error) {
	var identity schema.Identity
	err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &identity)
	return identity, err
}

// --- ItemRepository ---

func (c *Client) List(ctx context.Context) ([]schema.Item, error) {
	var items []schema.Item
	if err := c.do(ctx, http.MethodGet, "/api/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Create(ctx context.Context, title, description string, status schema.Status) (schema.Item, error) {
	if err := validateItemFields(title, description, status); err != nil {
		return schema.Item{}, err
	}
	var item schema.Item
	err := c.do(ctx, http.MethodPost, "/api/items", itemPayload(title, description, status), &item)
	return item, err
}

func (c *Client) Update(ctx context.Context, id, title, description string, status schema.Status) (schema.Item, error) {
	if strings.TrimSpace(id) == "" {
		return schema.Item{}, fmt.Errorf("%w: item id is required", ErrValidation)
	}
	if err := validateItemFields(title, description, status); err != nil {
		return schema.Item{}, err
	}
	var item schema.Item
	err := c.do(ctx, http.MethodPut, "/api/items/"+id, itemPayload(title, description, status), &item)
	return item, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: item id is required", ErrValidation)
	}
	return c.do(ctx, http.MethodDelete, "/api/items/"+id, nil, nil)
}

func validateItemFields(title, description string, status schema.Status) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if status != "" && !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return nil
}

func itemPayload(title, description string, status schema.Status) map[string]string {
	if status == "" {
		status = schema.StatusPending
	}
	return map[string]string{
		"title":       title,
		"description": description,
		"status":      string(status),
	}
}

// --- Transport ---

type apiError struct {
	Message string `json:"error"`
	Code    string `json:"code"`
}

// do performs exactly one request. Failures are never retried automatically;
// the caller (ultimately the user) decides whether to resubmit.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrStore, err)
	}
	return nil
}

// decodeError maps an error response back onto the sentinel taxonomy.
func (c *Client) decodeError(resp *http.Response) error {
	var apiErr apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &apiErr)
	msg := apiErr.Message
	if msg == "" {
		msg = resp.Status
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		if apiErr.Code == "password_mismatch" {
			sentinel = ErrPasswordMismatch
		} else {
			sentinel = ErrValidation
		}
	case http.StatusUnauthorized:
		if apiErr.Code == "invalid_credentials" {
			sentinel = ErrInvalidCredentials
		} else {
			sentinel = ErrUnauthorized
		}
	case http.StatusForbidden:
		sentinel = ErrNotVerified
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusConflict:
		sentinel = ErrEmailTaken
	default:
		sentinel = ErrStore
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
