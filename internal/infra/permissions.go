package infra

import (
	"context"
	"os"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// Permission names a capability the blocker needs from the host system.
type Permission string

const (
	PermAccessibility       Permission = "accessibility"
	PermUsageAccess         Permission = "usage_access"
	PermOverlay             Permission = "overlay"
	PermPopupWindow         Permission = "popup_window"
	PermBatteryOptimization Permission = "battery_optimization"
	PermRestrictedSettings  Permission = "restricted_settings"
)

// AllPermissions lists permissions in display order.
var AllPermissions = []Permission{
	PermAccessibility,
	PermUsageAccess,
	PermOverlay,
	PermPopupWindow,
	PermBatteryOptimization,
	PermRestrictedSettings,
}

// PermissionChecker answers permission checks on a desktop host.
// Overlay, popup and battery-optimization have no desktop equivalent and are
// always granted.
type PermissionChecker struct {
	source         domain.EventSource
	processManager domain.ProcessManager
	dataDir        string
}

// NewPermissionChecker creates a checker.
func NewPermissionChecker(source domain.EventSource, pm domain.ProcessManager, dataDir string) *PermissionChecker {
	return &PermissionChecker{source: source, processManager: pm, dataDir: dataDir}
}

// Check reports whether p is granted. Failures are reported as false, never as errors.
func (c *PermissionChecker) Check(ctx context.Context, p Permission) bool {
	switch p {
	case PermAccessibility:
		if c.source == nil {
			return false
		}
		ok, _ := c.source.Available()
		return ok
	case PermUsageAccess:
		if c.processManager == nil {
			return false
		}
		_, err := c.processManager.Names(ctx)
		return err == nil
	case PermOverlay, PermPopupWindow, PermBatteryOptimization:
		return true
	case PermRestrictedSettings:
		return dirWritable(c.dataDir)
	default:
		return false
	}
}

func dirWritable(dir string) bool {
	if dir == "" {
		return false
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return false
	}
	f, err := os.CreateTemp(dir, ".perm-check-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
