package infra

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPermissionChecker(t *testing.T) {
	pm := newMockProcessManager("steam")
	source := NewProcessEventSource(pm, 0, zap.NewNop())
	checker := NewPermissionChecker(source, pm, t.TempDir())
	ctx := context.Background()

	for _, p := range AllPermissions {
		assert.True(t, checker.Check(ctx, p), "permission %s", p)
	}
	assert.False(t, checker.Check(ctx, Permission("camera")))
}

func TestPermissionChecker_Missing(t *testing.T) {
	pm := newMockProcessManager()
	pm.SetNames(nil, errors.New("denied"))
	ctx := context.Background()

	checker := NewPermissionChecker(NewProcessEventSource(pm, 0, zap.NewNop()), pm, "")
	assert.False(t, checker.Check(ctx, PermAccessibility))
	assert.False(t, checker.Check(ctx, PermUsageAccess))
	assert.False(t, checker.Check(ctx, PermRestrictedSettings))

	empty := NewPermissionChecker(nil, nil, "")
	assert.False(t, empty.Check(ctx, PermAccessibility))
	assert.False(t, empty.Check(ctx, PermUsageAccess))
}

func TestPermissionChecker_ReadOnlyDataDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	assert.NoError(t, os.Mkdir(dir, 0500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0700) })

	checker := NewPermissionChecker(nil, nil, dir)
	assert.False(t, checker.Check(context.Background(), PermRestrictedSettings))
}
