// Package api exposes the storage engine over HTTP for SDK clients.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itemdeck/itemdeck/internal/auth"
	"github.com/itemdeck/itemdeck/internal/engine"
	"github.com/itemdeck/itemdeck/pkg/schema"
)

// Handler carries the dependencies shared by all routes.
type Handler struct {
	Store  engine.Store
	Mailer auth.Mailer
}

type signUpRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

type sessionResponse struct {
	Token    string          `json:"token"`
	Identity schema.Identity `json:"identity"`
}

type itemRequest struct {
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description" binding:"required"`
	Status      schema.Status `json:"status"`
}

// SignUp registers an unverified account and mails it a verification code.
func (h *Handler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match", "code": "password_mismatch"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	code, err := auth.NewVerifyCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Store.CreateUser(req.Name, req.Email, hash, code)
	if err != nil {
		h.storeError(c, err)
		return
	}
	if err := h.Mailer.SendVerification(user.Email, user.Name, code); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "pending_verification", "email": user.Email})
}

// Verify finalizes a pending registration and opens a session.
func (h *Handler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	user, err := h.Store.VerifyUser(req.Email, req.Code)
	if err != nil {
		h.storeError(c, err)
		return
	}
	h.openSession(c, user)
}

// SignIn checks credentials and opens a session for a verified account.
func (h *Handler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	user, err := h.Store.UserByEmail(req.Email)
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		// Same answer for unknown email and wrong password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials", "code": "invalid_credentials"})
		return
	}
	if !user.Verified {
		c.JSON(http.StatusForbidden, gin.H{"error": "email not verified", "code": "not_verified"})
		return
	}
	h.openSession(c, user)
}

// SignOut invalidates the caller's session token.
func (h *Handler) SignOut(c *gin.Context) {
	if err := h.Store.DeleteSession(bearerToken(c)); err != nil {
		h.storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Session returns the identity behind the caller's token. Clients use it to
// restore a persisted session at startup.
func (h *Handler) Session(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, user.Identity())
}

// ListItems returns the caller's items, newest first.
func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.Store.ListItems(currentUser(c).ID)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateItem stores a new item for the caller.
func (h *Handler) CreateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}
	item, err := h.Store.CreateItem(currentUser(c).ID, req.Title, req.Description, req.Status)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateItem replaces the mutable fields of one of the caller's items.
func (h *Handler) UpdateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}
	status := req.Status
	if status == "" {
		status = schema.StatusPending
	}
	item, err := h.Store.UpdateItem(currentUser(c).ID, c.Param("id"), req.Title, req.Description, status)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem removes one of the caller's items.
func (h *Handler) DeleteItem(c *gin.Context) {
	if err := h.Store.DeleteItem(currentUser(c).ID, c.Param("id")); err != nil {
		h.storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) openSession(c *gin.Context, user schema.UserRecord) {
	token, err := auth.NewSessionToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.PutSession(token, user.ID, nowPlusTTL()); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Token: token, Identity: user.Identity()})
}

// storeError maps engine errors onto HTTP statuses.
func (h *Handler) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound),
		errors.Is(err, engine.ErrUserNotFound),
		errors.Is(err, engine.ErrBadVerifyCode):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, engine.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "email_taken"})
	case errors.Is(err, engine.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "unauthorized"})
	case errors.Is(err, engine.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
