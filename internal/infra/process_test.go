package infra

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessManager(t *testing.T) {
	pm := NewProcessManager()

	assert.Equal(t, os.Getpid(), pm.GetCurrentPID())
	assert.True(t, pm.IsRunning(os.Getpid()))
	assert.False(t, pm.IsRunning(0))
	assert.False(t, pm.IsRunning(-1))

	names, err := pm.Names(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, names)
}
