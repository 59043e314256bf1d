package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCasefileCommand(t *testing.T) {
	cmd := NewCasefileCommand()

	require.NotNil(t, cmd)
	assert.Equal(t, "casefile", cmd.Use)
	assert.True(t, cmd.HasSubCommands())
	for _, name := range []string{"env-file", "log-file", "log-level"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}

	want := map[string]bool{"play": false, "gallery": false, "override": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		assert.True(t, found, "missing subcommand %s", name)
	}
}
