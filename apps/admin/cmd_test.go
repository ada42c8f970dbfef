package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/core/user"
	inmemdb "github.com/somahq/soma/storage/database/inmem"
)

func mockPassword(pwd string) func() {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
	return func() { readPasswordFunc = orig }
}

func Test_commandLine_run(t *testing.T) {
	restore := mockPassword("Secret123!")
	defer restore()

	repo := inmemdb.NewUserRepository()
	cli := &commandLine{usrRepo: repo}

	t.Run("no args prints usage", func(t *testing.T) {
		assert.Equal(t, errHelp, cli.run([]string{"admin"}))
	})

	t.Run("unknown command prints usage", func(t *testing.T) {
		assert.Equal(t, errHelp, cli.run([]string{"admin", "frobnicate"}))
	})

	t.Run("adduser requires name and email", func(t *testing.T) {
		assert.Equal(t, errHelp, cli.run([]string{"admin", "adduser", "-name", "Aminata"}))
	})

	t.Run("adduser creates a verified user", func(t *testing.T) {
		err := cli.run([]string{"admin", "adduser", "-name", "Aminata Diallo", "-email", "Aminata@Test.Soma"})
		require.NoError(t, err)

		usr, err := repo.GetUserByEmail(context.Background(), "aminata@test.soma")
		require.NoError(t, err)
		assert.Equal(t, "Aminata Diallo", usr.Name)
		assert.Equal(t, user.RoleUser, usr.Role)
		assert.True(t, usr.IsVerified)
		assert.NoError(t, usr.CheckPassword("Secret123!"))
	})

	t.Run("adduser updates an existing user", func(t *testing.T) {
		err := cli.run([]string{"admin", "adduser", "-name", "A. Diallo", "-email", "aminata@test.soma", "-admin"})
		require.NoError(t, err)

		users, err := repo.QueryAllUsers(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "A. Diallo", users[0].Name)
		assert.Equal(t, user.RoleAdmin, users[0].Role)
	})

	t.Run("empty password is refused", func(t *testing.T) {
		restore := mockPassword("")
		defer restore()
		err := cli.run([]string{"admin", "adduser", "-name", "Bob", "-email", "bob@test.soma"})
		assert.Equal(t, errHelp, err)
		_, err = repo.GetUserByEmail(context.Background(), "bob@test.soma")
		assert.Equal(t, user.ErrNotFound, err)
	})
}
