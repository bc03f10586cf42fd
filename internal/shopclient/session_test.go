package shopclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Is-Prog22/fastandtrust/internal/catalog"
)

func newLoginStub(t *testing.T, role string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(LoginResult{
			Success: true,
			Token:   "tok-123",
			Role:    role,
			User:    &catalog.User{ID: 5, Email: req.Email, Username: req.Name},
		})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestSession_LoginValidation(t *testing.T) {
	sess, err := OpenSession(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)

	cl := NewClient("http://unused.invalid")

	err = sess.Login(context.Background(), cl, "ada@example.com", "Ad")
	require.ErrorIs(t, err, ErrInvalidName)

	err = sess.Login(context.Background(), cl, "ada@example.com", "Ada99")
	require.ErrorIs(t, err, ErrInvalidName)

	err = sess.Login(context.Background(), cl, "not-an-email", "Ada")
	require.ErrorIs(t, err, ErrInvalidEmail)

	assert.False(t, sess.LoggedIn)
}

func TestSession_LoginPersistsToken(t *testing.T) {
	ts := newLoginStub(t, "user")
	path := filepath.Join(t.TempDir(), "session.json")

	sess, err := OpenSession(path)
	require.NoError(t, err)

	cl := NewClient(ts.URL)
	require.NoError(t, sess.Login(context.Background(), cl, "ada@example.com", "Ada"))

	assert.True(t, sess.LoggedIn)
	assert.False(t, sess.Admin)
	assert.Equal(t, "tok-123", sess.Token)
	assert.Equal(t, "tok-123", cl.Token(), "client adopts the session token")

	restored, err := OpenSession(path)
	require.NoError(t, err)
	assert.True(t, restored.LoggedIn)
	assert.Equal(t, "tok-123", restored.Token)
	require.NotNil(t, restored.Identity)
	assert.Equal(t, "Ada", restored.Identity.Username)
}

func TestSession_AdminRoleElevates(t *testing.T) {
	ts := newLoginStub(t, "admin")

	sess, err := OpenSession(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)

	require.NoError(t, sess.Login(context.Background(), NewClient(ts.URL), "admin@example.com", "Admin"))
	assert.True(t, sess.Admin)
}

func TestSession_LogoutClearsEverything(t *testing.T) {
	ts := newLoginStub(t, "user")
	path := filepath.Join(t.TempDir(), "session.json")

	sess, err := OpenSession(path)
	require.NoError(t, err)
	require.NoError(t, sess.Login(context.Background(), NewClient(ts.URL), "ada@example.com", "Ada"))

	require.NoError(t, sess.Logout())

	assert.False(t, sess.LoggedIn)
	assert.False(t, sess.Admin)
	assert.Empty(t, sess.Token)
	assert.Nil(t, sess.Identity)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "session file must be removed on logout")

	restored, err := OpenSession(path)
	require.NoError(t, err)
	assert.False(t, restored.LoggedIn)
}
