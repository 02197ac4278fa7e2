package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invctl "github.com/donaldgifford/pos-inventory-dashboard/cmd/invctl/cmd"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "invctl")
	require.NoError(t, generate(invctl.Root(), dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "invctl.md")
	assert.Contains(t, names, "invctl_inventory.md")
	assert.Contains(t, names, "invctl_credentials.md")
}
