package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atzentis/atzentis/internal/domain/port"
)

func TestMockEngine_CompletesAcrossRepeatedExecuteCalls(t *testing.T) {
	engine := NewMockEngine()
	engine.FailUntil = 2 // each top-level Execute call makes a single attempt (MaxRetries 0)
	engine.Output = "working"

	for i := 1; i <= 2; i++ {
		result, err := engine.Execute(context.Background(), "p", port.ExecuteOptions{})
		require.NoError(t, err)
		assert.False(t, result.Completed, "call %d should not yet be complete", i)
	}

	result, err := engine.Execute(context.Background(), "p", port.ExecuteOptions{})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 3, engine.Calls())
}

func TestMockEngine_InnerRetryEnvelopeResolvesWithinSingleExecuteCall(t *testing.T) {
	engine := NewMockEngine()
	engine.FailUntil = 2
	engine.MaxRetries = 2

	result, err := engine.Execute(context.Background(), "p", port.ExecuteOptions{})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 3, engine.Calls())
}

func TestMockEngine_CheckCompletion(t *testing.T) {
	engine := NewMockEngine()
	assert.True(t, engine.CheckCompletion("<promise>COMPLETE</promise>"))
	assert.False(t, engine.CheckCompletion("nope"))
}
