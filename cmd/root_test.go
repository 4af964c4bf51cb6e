package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	tests := []struct {
		name      string
		shorthand string
	}{
		{"week", "w"},
		{"next", "n"},
		{"free", "f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
			assert.Equal(t, "false", flag.DefValue)
		})
	}

	for _, name := range []string{"config", "calendar", "debug"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing persistent flag %s", name)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"auth", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	auth, _, err := cmd.Find([]string{"auth"})
	require.NoError(t, err)
	assert.NotNil(t, auth.Flags().Lookup("force"))
}

func TestVersionCmd(t *testing.T) {
	old := version
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion(old) })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "schedule version 1.2.3\n", out.String())
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"tomorrow"})

	assert.Error(t, cmd.Execute())
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
	assert.Empty(t, stdout.String())
}

func TestRootCmd_MissingCredentials(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "schedule.yaml")
	content := "credentials_file: " + filepath.Join(dir, "credentials.json") + "\n" +
		"token_file: " + filepath.Join(dir, "token.json") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0600))

	for _, args := range [][]string{
		{"--config", cfgPath, "--free"},
		{"auth", "--config", cfgPath},
	} {
		var stdout bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&stdout)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)

		err := cmd.Execute()
		require.Error(t, err, "args %v", args)
		assert.Contains(t, err.Error(), "google auth: load credentials")
		assert.Empty(t, stdout.String())
	}
}
