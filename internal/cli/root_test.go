package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "parsetest", cmd.Name())
	assert.Contains(t, cmd.Long, "program-under-test")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	subCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)
	assert.Equal(t, "history", subCmd.Name())
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

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestHarnessFlags(t *testing.T) {
	cmd := NewRootCommand()

	defaults := map[string]string{
		"root":            "",
		"category":        "[]",
		"timeout":         "0s",
		"jobs":            "1",
		"sort":            "true",
		"check-exit-code": "false",
		"color":           "auto",
		"strict":          "false",
	}
	for name, def := range defaults {
		t.Run(name, func(t *testing.T) {
			flag := cmd.Flags().Lookup(name)
			require.NotNil(t, flag)
			assert.Equal(t, def, flag.DefValue)
		})
	}
	assert.Equal(t, "j", cmd.Flags().Lookup("jobs").Shorthand)
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	historyCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	limitFlag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "20", limitFlag.DefValue)
}

func TestRootCommand_Usage(t *testing.T) {
	for _, args := range [][]string{{}, {"a", "b"}} {
		cmd := NewRootCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)

		err := cmd.Execute()
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Equal(t, "Usage: parsetest <program-under-test>", err.Error())
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "./validator"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}
