package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "session.json")
}

func TestOpenMissingFileMeansGuest(t *testing.T) {
	s, err := Open(sessionPath(t))
	require.NoError(t, err)
	assert.Nil(t, s.Current())
}

func TestOpenCorruptFileMeansGuest(t *testing.T) {
	path := sessionPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Nil(t, s.Current())
}

func TestSignInPersistsAcrossOpens(t *testing.T) {
	path := sessionPath(t)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SignIn(Identity{UserID: "u123", Name: "Ann", Email: "ann@example.com"}))

	current := s.Current()
	require.NotNil(t, current)
	assert.Equal(t, "u123", current.UserID)
	assert.False(t, current.SignedIn.IsZero())

	reopened, err := Open(path)
	require.NoError(t, err)
	current = reopened.Current()
	require.NotNil(t, current)
	assert.Equal(t, "Ann", current.Name)
}

func TestSignOut(t *testing.T) {
	path := sessionPath(t)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SignIn(Identity{UserID: "u123"}))
	require.NoError(t, s.SignOut())
	assert.Nil(t, s.Current())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Signing out while already guest is not an error.
	assert.NoError(t, s.SignOut())
}

func TestOnChange(t *testing.T) {
	s, err := Open(sessionPath(t))
	require.NoError(t, err)

	var events []*Identity
	s.OnChange(func(id *Identity) {
		events = append(events, id)
	})

	require.NoError(t, s.SignIn(Identity{UserID: "u123"}))
	require.NoError(t, s.SignOut())

	require.Len(t, events, 2)
	require.NotNil(t, events[0])
	assert.Equal(t, "u123", events[0].UserID)
	assert.Nil(t, events[1])
}
