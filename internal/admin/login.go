package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Is-Prog22/fastandtrust/internal/catalog"
	"github.com/Is-Prog22/fastandtrust/pkg/kit"
)

const maxBodyBytes = 1 << 20

var (
	// Same rules the storefront enforces in its login form: letters-only
	// names of at least three characters and a loosely shaped email.
	namePattern  = regexp.MustCompile(`^\p{L}{3,}$`)
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// Identity is the configured admin identity. PasswordHash is optional: when
// set, admin login additionally requires the matching password.
type Identity struct {
	Email        string
	Name         string
	PasswordHash string
}

// Matches compares case-insensitively, as the storefront always has.
func (id Identity) Matches(email, name string) bool {
	return strings.EqualFold(email, id.Email) && strings.EqualFold(name, id.Name)
}

type Server struct {
	Log      *zap.Logger
	Tokens   *TokenMaker
	Identity Identity
	Store    catalog.Store
}

// Register mounts both login endpoints on r; limiter throttles per IP.
func (s *Server) Register(r chi.Router, limiter *kit.IPRateLimiter) {
	r.With(limiter.Middleware).Post("/admin/login", s.handleAdminLogin)
	r.With(limiter.Middleware).Post("/login", s.handleLogin)
}

type loginReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

type loginResp struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	Role    string        `json:"role"`
	User    *catalog.User `json:"user,omitempty"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if !s.Identity.Matches(req.Email, req.Name) || !s.passwordOK(req.Password) {
		kit.WriteError(w, r, http.StatusUnauthorized, kit.CodeUnauthorized, "Invalid credentials", nil)
		return
	}

	tok, err := s.Tokens.New(req.Email, req.Name, RoleAdmin)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, kit.CodeStorage, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{Success: true, Token: tok, Role: RoleAdmin})
}

// handleLogin records a visitor login. Every accepted attempt appends a User
// record; the same email may appear any number of times.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if !namePattern.MatchString(req.Name) {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation,
			"The name must contain only letters and be at least 3 characters long", nil)
		return
	}
	if !emailPattern.MatchString(req.Email) {
		kit.WriteError(w, r, http.StatusBadRequest, kit.CodeValidation, "Invalid email", nil)
		return
	}

	u, err := s.Store.AppendUser(r.Context(), catalog.User{
		Email:     req.Email,
		Username:  req.Name,
		LoginTime: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.Log.Error("record login failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, kit.CodeStorage, "server error", nil)
		return
	}

	role := RoleUser
	if s.Identity.Matches(req.Email, req.Name) && s.passwordOK(req.Password) {
		role = RoleAdmin
	}

	tok, err := s.Tokens.New(req.Email, req.Name, role)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, kit.CodeStorage, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{Success: true, Token: tok, Role: role, User: &u})
}

func (s *Server) passwordOK(password string) bool {
	if s.Identity.PasswordHash == "" {
		return true
	}
	err := bcrypt.CompareHashAndPassword([]byte(s.Identity.PasswordHash), []byte(password))
	return err == nil
}

func decodeLogin(w http.ResponseWriter, r *http.Request) (loginReq, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req loginReq
	if err := dec.Decode(&req); err != nil {
		return loginReq{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return loginReq{}, errors.New("extra data after json object")
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	return req, nil
}
