package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersMaintenanceCommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "migrate", "seed", "repair"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
		assert.NotNil(t, cmd.RunE, name)
	}

	seed, _, err := root.Find([]string{"seed"})
	require.NoError(t, err)
	dir := seed.Flags().Lookup("dir")
	require.NotNil(t, dir)
	assert.Equal(t, "internals/seeds", dir.DefValue)
}
