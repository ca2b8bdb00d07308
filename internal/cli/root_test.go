package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unknown command", errors.New(`unknown command "foo" for "statemon"`), true},
		{"unknown flag", errors.New(`unknown flag: --foo`), true},
		{"unknown shorthand", errors.New(`unknown shorthand flag: 'x' in -x`), true},
		{"other error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnknownCommandError(tt.err))
		})
	}
}

func TestExtractUnknownCommand(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"standard cobra format", errors.New(`unknown command "foo" for "statemon"`), "foo"},
		{"hyphenated", errors.New(`unknown command "reset-all" for "statemon"`), "reset-all"},
		{"flag", errors.New(`unknown flag: --fast`), "--fast"},
		{"unterminated quote", errors.New(`unknown command "foo`), "foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUnknownCommand(tt.err))
		})
	}
}

func TestRootCommandTree(t *testing.T) {
	want := []string{"topics", "reset", "snapshot", "simulate", "init", "version", "completion"}

	got := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "missing subcommand %s", name)
	}

	for _, flag := range []string{"broker", "client-id", "timeout", "retention", "quality", "log-file"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(flag), "root should accept --%s", flag)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("no-color"))
}

func TestUnknownCommandError(t *testing.T) {
	err := unknownCommandError(errors.New(`unknown command "topcis" for "statemon"`))
	assert.Contains(t, err.Error(), `Unknown command or flag "topcis"`)
	assert.Contains(t, err.Error(), "Did you mean topics?")

	err = unknownCommandError(errors.New(`unknown command "plot" for "statemon"`))
	assert.Contains(t, err.Error(), "statemon --help")
}
