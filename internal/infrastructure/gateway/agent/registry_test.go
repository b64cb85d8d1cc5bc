package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := NewRegistry()
	mock := NewMockEngine()
	reg.Register(mock)

	resolved, err := reg.Resolve("mock")
	require.NoError(t, err)
	assert.Same(t, mock, resolved)
}

func TestRegistry_ResolveUnknownVariant(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("nonexistent")
	assert.Error(t, err)
}

func TestRegistry_Variants(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewMockEngine())
	reg.Register(NewSubprocessEngine("claude", "claude", 0, ""))

	variants := reg.Variants()
	assert.ElementsMatch(t, []string{"mock", "claude"}, variants)
}
