package mcp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/playscribe/internal/bus"
	"github.com/hpungsan/playscribe/internal/config"
	"github.com/hpungsan/playscribe/internal/coordinator"
	"github.com/hpungsan/playscribe/internal/errors"
)

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	require.Len(t, names, len(toolRegistry))
	require.Contains(t, names, "project_create")
	require.Contains(t, names, "project_export")
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"project_save", "project_nuke"})
	require.Equal(t, []string{"project_nuke"}, unknown)

	require.Empty(t, ValidateDisabledTools(nil))
}

func TestToolRegistry_DefinitionsMatchKeys(t *testing.T) {
	for name, entry := range toolRegistry {
		require.Equal(t, name, entry.def.Name, "registry key must match tool name")
		require.NotNil(t, entry.handler)
	}
}

func TestNewServer_SkipsDisabledTools(t *testing.T) {
	cfg := &config.Config{
		Workspace:     t.TempDir(),
		DisabledTools: []string{"project_export"},
	}
	b := bus.New(nil)
	coord := coordinator.New(cfg, b, nil, nil)
	defer coord.Dispose()

	s := NewServer(coord, b, nil, cfg, "test")
	require.NotNil(t, s)
}

func TestErrorResult_HidesInternalDetails(t *testing.T) {
	result := errorResult(errors.NewInternal(errSecret{}))
	require.True(t, result.IsError)

	text := resultText(t, result)
	require.Contains(t, text, "an internal error occurred")
	require.NotContains(t, text, "sqlite path leaked")
}

type errSecret struct{}

func (errSecret) Error() string { return "sqlite path leaked" }
