package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
	"github.com/sakif/findsboard/internal/repository/sqlstore"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// isolate points DATABASE_URL at a fresh SQLite file and makes sure no .env
// from the working directory leaks in.
func isolate(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, nil, 0o600))

	dbURL := "sqlite://" + filepath.Join(dir, "findsboard.db")
	t.Setenv("DATABASE_URL", dbURL)
	t.Setenv("LOG_LEVEL", "error")
	return dbURL, envFile
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "findsboard version 1.0.1")
	assert.Contains(t, out, "Go version:")
}

func TestMigrateAndGrantAdmin(t *testing.T) {
	dbURL, envFile := isolate(t)

	out, err := run(t, "migrate", "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	ctx := context.Background()
	db, err := sqlstore.Open(ctx, dbURL)
	require.NoError(t, err)
	u := &model.User{DiscordID: "d-1", Username: "ana", Email: "ana@mail.test", Role: model.RoleUser}
	require.NoError(t, db.Users().Create(ctx, u))
	require.NoError(t, db.Close())

	out, err = run(t, "grant-admin", "--env-file", envFile, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "ana (id 1) is now an admin")

	db, err = sqlstore.Open(ctx, dbURL)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)

	logs, err := db.Logs().List(ctx, repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Granted admin role to user: 1", logs[0].Message)
	assert.Nil(t, logs[0].UserID, "promotion from the command line has no acting user")
}

func TestGrantAdmin_Errors(t *testing.T) {
	_, envFile := isolate(t)
	_, err := run(t, "migrate", "--env-file", envFile)
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing argument", []string{"grant-admin", "--env-file", envFile}, "accepts 1 arg"},
		{"not a number", []string{"grant-admin", "--env-file", envFile, "ana"}, `invalid user id "ana"`},
		{"unknown user", []string{"grant-admin", "--env-file", envFile, "99"}, "granting admin to user 99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestServe_MissingConfiguration(t *testing.T) {
	_, envFile := isolate(t)
	for _, key := range []string{"DISCORD_CLIENT_ID", "DISCORD_CLIENT_SECRET", "DISCORD_GUILD_ID", "JWT_SECRET", "PORT"} {
		t.Setenv(key, "")
	}

	_, err := run(t, "serve", "--env-file", envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_CLIENT_ID")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "PORT")
}

func TestEnvFile_Missing(t *testing.T) {
	_, err := run(t, "migrate", "--env-file", filepath.Join(t.TempDir(), "nope.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.env")
}
