package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenMaker_RoundTrip(t *testing.T) {
	tm := NewTokenMaker("secret-secret-secret", time.Hour)

	tok, err := tm.New("admin@example.com", "Admin", RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "Admin", claims.Name)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestTokenMaker_Expired(t *testing.T) {
	tm := NewTokenMaker("secret-secret-secret", -time.Minute)

	tok, err := tm.New("admin@example.com", "Admin", RoleAdmin)
	require.NoError(t, err)

	_, err = tm.Parse(tok)
	require.Error(t, err)
}

func TestTokenMaker_WrongSecret(t *testing.T) {
	tm := NewTokenMaker("secret-secret-secret", time.Hour)
	other := NewTokenMaker("another-secret-entirely", time.Hour)

	tok, err := tm.New("admin@example.com", "Admin", RoleAdmin)
	require.NoError(t, err)

	_, err = other.Parse(tok)
	require.Error(t, err)
}

func TestTokenMaker_Garbage(t *testing.T) {
	tm := NewTokenMaker("secret-secret-secret", time.Hour)

	_, err := tm.Parse("not-a-jwt")
	require.Error(t, err)
}
