package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/augurlite/internal/testutil"
)

// testOptions returns options with a temporary database and sequential
// snapshot ids. Commands created from the same options share the id
// sequence, as consecutive CLI invocations share a database.
func testOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:      format,
		Database:    filepath.Join(t.TempDir(), "augurlite.db"),
		IDGenerator: testutil.NewSequentialIDs(""),
	}
}

// execute runs cmd with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "augurlite", cmd.Use)
	assert.Contains(t, cmd.Long, "SQLite")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"deploy"},
		{"call"},
		{"snapshot"},
		{"snapshot", "list"},
		{"snapshot", "revert"},
		{"trace"},
		{"test"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "augurlite.db", dbFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	tests := []struct {
		path []string
		flag string
		def  string
	}{
		{[]string{"deploy"}, "config", ""},
		{[]string{"call"}, "from", ""},
		{[]string{"call"}, "send", "false"},
		{[]string{"trace"}, "method", ""},
		{[]string{"trace"}, "event", ""},
		{[]string{"test"}, "update", "false"},
		{[]string{"test"}, "filter", ""},
		{[]string{"test"}, "persist", "false"},
	}
	for _, tt := range tests {
		sub, _, err := cmd.Find(tt.path)
		require.NoError(t, err)
		f := sub.Flags().Lookup(tt.flag)
		require.NotNil(t, f, "%v --%s", tt.path, tt.flag)
		assert.Equal(t, tt.def, f.DefValue)
	}
}

func TestExecute_ExitCodes(t *testing.T) {
	db := filepath.Join(t.TempDir(), "augurlite.db")

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"invalid format", []string{"trace", "--format", "xml", "--db", db}, ExitCommandError, `invalid format "xml"`},
		{"no deployment", []string{"call", "Universe", "getNumberOfMarkets", "--db", db}, ExitCommandError, "no deployment found"},
		{"unknown command", []string{"compile"}, ExitFailure, "unknown command"},
		{"success", []string{"snapshot", "list", "--db", db}, ExitSuccess, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}
			code := Execute(context.Background(), tt.args, stdout, stderr)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantErr != "" {
				assert.Contains(t, stderr.String(), tt.wantErr)
			} else {
				assert.Empty(t, stderr.String())
			}
		})
	}
}

func TestExecute_JSONErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "augurlite.db")
	stderr := &bytes.Buffer{}

	code := Execute(context.Background(), []string{"call", "AugurLite", "getController", "--db", db, "--format", "json"}, &bytes.Buffer{}, stderr)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr.String(), `"status":"error"`)
	assert.Contains(t, stderr.String(), `"code":"E_COMMAND"`)
}

func TestExecute_CallFailureCode(t *testing.T) {
	db := filepath.Join(t.TempDir(), "augurlite.db")
	require.Equal(t, ExitSuccess, Execute(context.Background(), []string{"deploy", "--db", db}, &bytes.Buffer{}, &bytes.Buffer{}))

	stderr := &bytes.Buffer{}
	code := Execute(context.Background(),
		[]string{"call", "AugurLite", "trustedTransfer", "AugurLite", "AugurLite", "AugurLite", "0", "--db", db},
		&bytes.Buffer{}, stderr)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr.String(), "Error [E_CALL_FAILED]: AugurLite.trustedTransfer failed: REVERTED")
}
