package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Is-Prog22/fastandtrust/internal/admin"
	"github.com/Is-Prog22/fastandtrust/internal/catalog"
	"github.com/Is-Prog22/fastandtrust/pkg/kit"
)

func newLoginServer(t *testing.T, identity admin.Identity) (*httptest.Server, catalog.Store) {
	t.Helper()

	store, err := catalog.OpenFileStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	s := &admin.Server{
		Log:      zap.NewNop(),
		Tokens:   admin.NewTokenMaker("test-secret-test-secret", time.Hour),
		Identity: identity,
		Store:    store,
	}

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		s.Register(api, kit.NewIPRateLimiter(1000, 60))
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestAdminLogin_Success(t *testing.T) {
	ts, _ := newLoginServer(t, admin.Identity{Email: "admin@example.com", Name: "Admin"})

	resp, body := postJSON(t, ts.URL+"/api/admin/login", map[string]string{
		"email": "ADMIN@example.com",
		"name":  "admin",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
}

func TestAdminLogin_Mismatch(t *testing.T) {
	ts, _ := newLoginServer(t, admin.Identity{Email: "admin@example.com", Name: "Admin"})

	resp, _ := postJSON(t, ts.URL+"/api/admin/login", map[string]string{
		"email": "someone@example.com",
		"name":  "Admin",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminLogin_PasswordRequiredWhenConfigured(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	ts, _ := newLoginServer(t, admin.Identity{
		Email:        "admin@example.com",
		Name:         "Admin",
		PasswordHash: string(hash),
	})

	resp, _ := postJSON(t, ts.URL+"/api/admin/login", map[string]string{
		"email": "admin@example.com",
		"name":  "Admin",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "identity alone must not pass once a password is set")

	resp, body := postJSON(t, ts.URL+"/api/admin/login", map[string]string{
		"email":    "admin@example.com",
		"name":     "Admin",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
}

func TestLogin_RecordsUser(t *testing.T) {
	ts, store := newLoginServer(t, admin.Identity{Email: "admin@example.com", Name: "Admin"})

	resp, body := postJSON(t, ts.URL+"/api/login", map[string]string{
		"email": "ada@example.com",
		"name":  "Ada",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user", body["role"])

	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ada@example.com", users[0].Email)
	assert.Equal(t, "Ada", users[0].Username)
	assert.NotEmpty(t, users[0].LoginTime)
}

func TestLogin_SameEmailAppendsAgain(t *testing.T) {
	ts, store := newLoginServer(t, admin.Identity{Email: "admin@example.com", Name: "Admin"})

	for i := 0; i < 2; i++ {
		resp, _ := postJSON(t, ts.URL+"/api/login", map[string]string{
			"email": "ada@example.com",
			"name":  "Ada",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestLogin_AdminIdentityGetsAdminRole(t *testing.T) {
	ts, _ := newLoginServer(t, admin.Identity{Email: "admin@example.com", Name: "Admin"})

	resp, body := postJSON(t, ts.URL+"/api/login", map[string]string{
		"email": "admin@example.com",
		"name":  "Admin",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "admin", body["role"])
}

func TestLogin_Validation(t *testing.T) {
	ts, store := newLoginServer(t, admin.Identity{Email: "admin@example.com", Name: "Admin"})

	cases := []struct {
		name  string
		email string
		user  string
	}{
		{"short name", "ada@example.com", "Ad"},
		{"digits in name", "ada@example.com", "Ada99"},
		{"bad email", "not-an-email", "Ada"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := postJSON(t, ts.URL+"/api/login", map[string]string{
				"email": tc.email,
				"name":  tc.user,
			})
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	// Rejected attempts never become login records.
	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}
