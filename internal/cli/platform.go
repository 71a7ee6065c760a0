package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/claroapp/claro-notify/internal/platform"
	"github.com/claroapp/claro-notify/internal/platform/android"
	"github.com/claroapp/claro-notify/internal/platform/systemd"
)

// androidHost carries the bridge services bound by the mobile shell.
// It must be set via SetAndroidHost before Execute when running inside
// the Android packaging; the desktop build leaves it nil.
var androidHost *android.Host

// SetAndroidHost binds the Android bridge services for this process.
func SetAndroidHost(h *android.Host) {
	androidHost = h
}

func defaultPlatform() string {
	return runtime.GOOS
}

// newTimerManager builds the timer backend for the named platform. The
// returned cleanup releases backend resources and is safe to defer.
func newTimerManager(ctx context.Context, platformName, appName string) (platform.TimerManager, func(), error) {
	switch platformName {
	case "linux":
		mgr, err := systemd.Connect(ctx)
		if err != nil {
			return nil, nil, err
		}
		unitDir, err := systemd.DefaultUnitDir()
		if err != nil {
			mgr.Close()
			return nil, nil, err
		}
		return systemd.NewTimerManager(appName, unitDir, mgr), mgr.Close, nil

	case "android":
		if androidHost == nil {
			return nil, nil, fmt.Errorf("android platform selected but no host services bound")
		}
		tm, err := android.NewTimerManager(androidHost.Alarms, androidHost.Dispatcher)
		if err != nil {
			return nil, nil, err
		}
		return tm, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported platform %q (want linux or android)", platformName)
	}
}

// newNotifier builds the notification backend for the named platform.
func newNotifier(platformName, appName string) (platform.NotificationManager, error) {
	switch platformName {
	case "linux":
		return systemd.NewNotifier(appName), nil

	case "android":
		if androidHost == nil {
			return nil, fmt.Errorf("android platform selected but no host services bound")
		}
		return android.NewNotifier(androidHost.Notifications, androidHost.Dispatcher)

	default:
		return nil, fmt.Errorf("unsupported platform %q (want linux or android)", platformName)
	}
}
