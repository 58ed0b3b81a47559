// Package session issues and resolves the signed-cookie sessions that
// establish the current authenticated identity and role.
package session

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Role is the coarse authorization tag attached to a session.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const sessionCookie = "site_session"

// Session is the per-client authenticated state. A non-empty Email implies
// a prior successful provider authentication.
type Session struct {
	Email  string
	UserID string
	Role   Role
}

// Claims is the JWT payload carried in the session cookie.
type Claims struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session cookies. The signing secret is drawn
// fresh at construction, so every session dies with the process.
type Manager struct {
	secret     []byte
	adminEmail string
}

// NewManager creates a session manager with a random per-process secret.
// adminEmail is the one address elevated to the admin role.
func NewManager(adminEmail string) (*Manager, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	return &Manager{secret: secret, adminEmail: adminEmail}, nil
}

// NewSession builds the session for a freshly authenticated identity,
// deriving the role from the configured admin email.
func (m *Manager) NewSession(email, userID string) Session {
	role := RoleUser
	if email == m.adminEmail {
		role = RoleAdmin
	}
	return Session{Email: email, UserID: userID, Role: role}
}

// Issue signs a session into a cookie-sized token.
func (m *Manager) Issue(s Session) (string, error) {
	claims := Claims{
		Email:  s.Email,
		UserID: s.UserID,
		Role:   string(s.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies a token and returns the session it carries.
func (m *Manager) Parse(tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return &Session{
		Email:  claims.Email,
		UserID: claims.UserID,
		Role:   Role(claims.Role),
	}, nil
}

// FromRequest resolves the session carried by the request's cookie.
func (m *Manager) FromRequest(c *gin.Context) (*Session, error) {
	raw, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil, err
	}
	return m.Parse(raw)
}

// SetCookie attaches the signed session to the response.
func (m *Manager) SetCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie (logout).
func (m *Manager) ClearCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
