package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/differo/differo/cmd/differo/commands"
)

func TestServeCommandDefaultFlags(t *testing.T) {
	t.Parallel()

	cmd := commands.NewServeCommand()

	addr, err := cmd.Flags().GetString("addr")
	assert.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	snapshotDir, err := cmd.Flags().GetString("snapshot-dir")
	assert.NoError(t, err)
	assert.Empty(t, snapshotDir)
}
