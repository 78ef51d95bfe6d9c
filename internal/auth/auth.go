// Package auth holds the daemon's credential primitives: password hashing,
// session tokens, verification codes and the mail delivery boundary.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SessionTTL is how long an issued session token stays valid.
const SessionTTL = 30 * 24 * time.Hour

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewSessionToken returns an opaque 32-byte random token, URL-safe encoded.
func NewSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewVerifyCode returns a 6-digit verification code.
func NewVerifyCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Mailer delivers verification codes. The transport (SMTP, provider API) is
// deployment-specific; the daemon only depends on this interface.
type Mailer interface {
	SendVerification(email, name, code string) error
}

// LogMailer writes the code to the daemon log instead of sending mail.
// Default for local setups without an outbound mail path.
type LogMailer struct{}

func (LogMailer) SendVerification(email, name, code string) error {
	log.Printf("verification code for %s <%s>: %s", name, email, code)
	return nil
}
