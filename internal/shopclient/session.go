package shopclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Is-Prog22/fastandtrust/internal/catalog"
)

var (
	ErrInvalidName  = errors.New("name must contain only letters and be at least 3 characters long")
	ErrInvalidEmail = errors.New("invalid email")

	namePattern  = regexp.MustCompile(`^\p{L}{3,}$`)
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// Session is the authenticated-session state, persisted to a file so the
// token and identity survive across runs. The zero value is logged out.
type Session struct {
	path string

	LoggedIn bool          `json:"loggedIn"`
	Admin    bool          `json:"admin"`
	Token    string        `json:"token,omitempty"`
	Identity *catalog.User `json:"identity,omitempty"`
}

// OpenSession restores the session stored at path, or returns a fresh
// logged-out one when none exists.
func OpenSession(path string) (*Session, error) {
	s := &Session{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return s, nil
}

// Login validates the form the way the storefront always has, records the
// login with the backend, and persists the returned token.
func (s *Session) Login(ctx context.Context, c *Client, email, name string) error {
	if !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}

	res, err := c.Login(ctx, email, name)
	if err != nil {
		return err
	}

	s.LoggedIn = true
	s.Admin = res.Role == "admin"
	s.Token = res.Token
	s.Identity = res.User
	return s.save()
}

// AdminLogin authenticates directly against the admin identity.
func (s *Session) AdminLogin(ctx context.Context, c *Client, email, name, password string) error {
	res, err := c.AdminLogin(ctx, email, name, password)
	if err != nil {
		return err
	}

	s.LoggedIn = true
	s.Admin = true
	s.Token = res.Token
	s.Identity = res.User
	return s.save()
}

// Logout clears everything, token included.
func (s *Session) Logout() error {
	s.LoggedIn = false
	s.Admin = false
	s.Token = ""
	s.Identity = nil

	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Attach applies the stored token to a client.
func (s *Session) Attach(c *Client) {
	if s.Token != "" {
		c.SetToken(s.Token)
	}
}

func (s *Session) save() error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(s.path, raw)
}

func writeFileAtomic(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
