package main

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dom/phim-stream/internal/client"
	"github.com/dom/phim-stream/internal/client/session"
	"github.com/dom/phim-stream/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestPasswdConfirmMismatch(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")

	err := execute(t, "passwd", "--token-file", tokenFile,
		"--old", "secret1", "--new", "secret2", "--confirm", "secret3")
	assert.ErrorIs(t, err, errPasswordMismatch)
}

func TestFailedCommandReportsErrorOnce(t *testing.T) {
	var cobraErr bytes.Buffer
	rootCmd.SetErr(&cobraErr)
	t.Cleanup(func() { rootCmd.SetErr(nil) })

	err := execute(t, "passwd", "--token-file", filepath.Join(t.TempDir(), "token"),
		"--old", "secret1", "--new", "secret2", "--confirm", "secret3")
	require.Error(t, err)
	assert.Empty(t, cobraErr.String(), "cobra must not print the error itself")

	var out bytes.Buffer
	printError(&out, err)
	assert.Equal(t, 1, strings.Count(out.String(), "Error:"))
	assert.Equal(t, "Error: "+errPasswordMismatch.Error()+"\n", out.String())
}

func TestPrintErrorListsFields(t *testing.T) {
	var out bytes.Buffer
	printError(&out, &client.APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "Invalid input",
		Fields:     map[string]string{"email": "must be a valid email"},
	})
	assert.Equal(t, "Error: Invalid input\n  email: must be a valid email\n", out.String())
}

func TestLoginUpdateLogout(t *testing.T) {
	ts := testutil.NewTestServer(t, nil)
	tokenFile := filepath.Join(t.TempDir(), "token")
	common := []string{"--server", ts.BaseURL(), "--token-file", tokenFile}

	require.NoError(t, execute(t, append([]string{"register",
		"--name", "A", "--email", "a@x.com", "--password", "secret1"}, common...)...))
	require.NoError(t, execute(t, append([]string{"login",
		"--email", "a@x.com", "--password", "secret1"}, common...)...))

	user, err := session.NewStore(session.NewFileStorage(tokenFile)).Hydrate()
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "A", user.Name)

	require.NoError(t, execute(t, append([]string{"update",
		"--name", "B", "--gender", "female"}, common...)...))

	user, err = session.NewStore(session.NewFileStorage(tokenFile)).Hydrate()
	require.NoError(t, err)
	assert.Equal(t, "B", user.Name)
	assert.Equal(t, "female", user.Gender)

	require.NoError(t, execute(t, append([]string{"whoami"}, common...)...))
	require.NoError(t, execute(t, append([]string{"logout"}, common...)...))

	user, err = session.NewStore(session.NewFileStorage(tokenFile)).Hydrate()
	require.NoError(t, err)
	assert.Nil(t, user)

	err = execute(t, append([]string{"update", "--name", "C", "--gender", "male"}, common...)...)
	assert.ErrorContains(t, err, "not logged in")
}
