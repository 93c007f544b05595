package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/differo/differo/cmd/differo/commands"
)

func TestRenderCommandWritesHTMLChart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "points.json")
	require.NoError(t, os.WriteFile(inputPath, []byte(`[{"round":0,"value":1},{"round":1,"value":3}]`), 0o600))

	outputPath := filepath.Join(dir, "chart.html")

	cmd := commands.NewRenderCommand()
	cmd.SetArgs([]string{"--input", inputPath, "--output", outputPath, "--title", "test chart"})

	require.NoError(t, cmd.Execute())

	contents, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "echarts")
}

func TestRenderCommandRequiresInput(t *testing.T) {
	t.Parallel()

	cmd := commands.NewRenderCommand()
	cmd.SetArgs(nil)

	assert.Error(t, cmd.Execute())
}
