package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atzentis/atzentis/internal/domain/port"
)

func TestRunner_InjectsEnv(t *testing.T) {
	r := NewRunner()
	result, err := r.Run(context.Background(), port.HookAfterTask,
		`echo "$PROJECT/$PHASE/$TASK_ID/$STATUS"`,
		port.HookContext{Project: "demo", Phase: "p00", TaskID: "T00-001", Status: port.HookStatusSuccess},
	)
	require.NoError(t, err)
	assert.Contains(t, result.Output, "demo/p00/T00-001/success")
}

func TestRunner_FailureReturnsOutput(t *testing.T) {
	r := NewRunner()
	result, err := r.Run(context.Background(), port.HookOnError, `echo boom; exit 1`, port.HookContext{})
	require.Error(t, err)
	assert.Contains(t, result.Output, "boom")
	assert.False(t, result.Success)
}

func TestHookKind_IsFatal(t *testing.T) {
	assert.True(t, port.HookBeforePhase.IsFatal())
	assert.True(t, port.HookBeforeTask.IsFatal())
	assert.False(t, port.HookAfterTask.IsFatal())
	assert.False(t, port.HookOnSuccess.IsFatal())
	assert.False(t, port.HookOnError.IsFatal())
}
