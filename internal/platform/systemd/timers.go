package systemd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claroapp/claro-notify/internal/schedule"
)

// TimerManager schedules notification timers as systemd user units.
// It keeps no timer state in memory: the unit files and the manager's
// RPC state are the only durable store.
type TimerManager struct {
	appName string
	unitDir string
	mgr     Manager
}

// NewTimerManager creates a TimerManager writing units to unitDir and
// driving the given manager connection.
func NewTimerManager(appName, unitDir string, mgr Manager) *TimerManager {
	return &TimerManager{appName: appName, unitDir: unitDir, mgr: mgr}
}

// ScheduleTimer writes a run-once service/timer unit pair, reloads the
// manager, and enables and starts the timer. The returned handle is the
// unit base name.
func (m *TimerManager) ScheduleTimer(ctx context.Context, occ schedule.Occurrence) (string, error) {
	var anchor time.Time
	var delay time.Duration
	if occ.IsWindow() {
		anchor = occ.Window.From
		delay = occ.Window.Duration()
	} else {
		anchor = occ.At
	}

	base := oneShotUnitName(m.appName, occ.Name, anchor)
	desc := fmt.Sprintf("%s notification", m.appName)
	if occ.Name != "" {
		desc = fmt.Sprintf("%s notification %q", m.appName, occ.Name)
	}

	if err := os.MkdirAll(m.unitDir, 0755); err != nil {
		return "", fmt.Errorf("schedule timer %q: create unit dir: %w", occ.Name, err)
	}

	servicePath := filepath.Join(m.unitDir, base+".service")
	timerPath := filepath.Join(m.unitDir, base+".timer")

	service := oneShotServiceUnit(desc, occ.Command, occ.Args, base, m.unitDir)
	timer := oneShotTimerUnit(desc, onCalendar(anchor), delay)

	if err := os.WriteFile(servicePath, []byte(service), 0644); err != nil {
		return "", fmt.Errorf("schedule timer %q: write service unit: %w", occ.Name, err)
	}
	if err := os.WriteFile(timerPath, []byte(timer), 0644); err != nil {
		return "", fmt.Errorf("schedule timer %q: write timer unit: %w", occ.Name, err)
	}

	if err := m.mgr.Reload(ctx); err != nil {
		return "", fmt.Errorf("schedule timer %q: %w", occ.Name, err)
	}
	if err := m.mgr.EnableUnitFiles(ctx, []string{timerPath}); err != nil {
		return "", fmt.Errorf("schedule timer %q: %w", occ.Name, err)
	}
	if err := m.mgr.StartUnit(ctx, base+".timer"); err != nil {
		return "", fmt.Errorf("schedule timer %q: %w", occ.Name, err)
	}

	return base, nil
}

// ScheduleDaily installs the fixed-name daily scheduler unit pair.
// When both units already exist with exactly the content that would be
// written, no file is touched and no reload is issued; the timer is
// still (re)enabled and (re)started on every call. Changed content
// (for example a moved command path) is rewritten and reloaded.
func (m *TimerManager) ScheduleDaily(ctx context.Context, command string, args []string, at schedule.TimeOfDay) error {
	base := dailyUnitName(m.appName)
	desc := fmt.Sprintf("%s daily notification scheduler", m.appName)

	servicePath := filepath.Join(m.unitDir, base+".service")
	timerPath := filepath.Join(m.unitDir, base+".timer")
	service := dailyServiceUnit(desc, command, args)
	timer := dailyTimerUnit(desc, at)

	current, err := m.dailyUnitsCurrent(ctx, base, servicePath, timerPath, service, timer)
	if err != nil {
		return fmt.Errorf("schedule daily: %w", err)
	}

	if current {
		log.Printf("systemd: daily units %s already installed, skipping write", base)
	} else {
		if err := os.MkdirAll(m.unitDir, 0755); err != nil {
			return fmt.Errorf("schedule daily: create unit dir: %w", err)
		}
		if err := os.WriteFile(servicePath, []byte(service), 0644); err != nil {
			return fmt.Errorf("schedule daily: write service unit: %w", err)
		}
		if err := os.WriteFile(timerPath, []byte(timer), 0644); err != nil {
			return fmt.Errorf("schedule daily: write timer unit: %w", err)
		}
		if err := m.mgr.Reload(ctx); err != nil {
			return fmt.Errorf("schedule daily: %w", err)
		}
	}

	if err := m.mgr.EnableUnitFiles(ctx, []string{timerPath}); err != nil {
		return fmt.Errorf("schedule daily: %w", err)
	}
	if err := m.mgr.StartUnit(ctx, base+".timer"); err != nil {
		return fmt.Errorf("schedule daily: %w", err)
	}
	return nil
}

// dailyUnitsCurrent reports whether both daily units are known to the
// manager and their on-disk content matches what would be written.
func (m *TimerManager) dailyUnitsCurrent(ctx context.Context, base, servicePath, timerPath, service, timer string) (bool, error) {
	files, err := m.mgr.ListUnitFiles(ctx)
	if err != nil {
		return false, err
	}

	serviceKnown, timerKnown := false, false
	for _, f := range files {
		switch filepath.Base(f) {
		case base + ".service":
			serviceKnown = true
		case base + ".timer":
			timerKnown = true
		}
	}
	if !serviceKnown || !timerKnown {
		return false, nil
	}

	onDisk, err := os.ReadFile(servicePath)
	if err != nil || string(onDisk) != service {
		return false, nil
	}
	onDisk, err = os.ReadFile(timerPath)
	if err != nil || string(onDisk) != timer {
		return false, nil
	}
	return true, nil
}

// CancelTimer stops and disables the timer unit behind the handle.
// A timer that no longer exists is logged and treated as a no-op: the
// caller cannot reliably know whether it already fired.
func (m *TimerManager) CancelTimer(ctx context.Context, handle string) error {
	timerUnit := handle + ".timer"

	if err := m.mgr.StopUnit(ctx, timerUnit); err != nil {
		if !unitNotFound(err) {
			return fmt.Errorf("cancel timer %q: %w", handle, err)
		}
		log.Printf("systemd: cancel %s: unit not found, may have fired already", timerUnit)
	}
	if err := m.mgr.DisableUnitFiles(ctx, []string{timerUnit}); err != nil {
		if !unitNotFound(err) {
			return fmt.Errorf("cancel timer %q: %w", handle, err)
		}
		log.Printf("systemd: cancel %s: unit file not found", timerUnit)
	}
	return nil
}

// CancelDaily stops and disables the recurring daily scheduler timer.
// Already-armed one-shot notification timers are left alone.
func (m *TimerManager) CancelDaily(ctx context.Context) error {
	return m.CancelTimer(ctx, dailyUnitName(m.appName))
}

// unitNotFound matches the manager's ways of saying a unit is gone.
func unitNotFound(err error) bool {
	s := err.Error()
	return strings.Contains(s, "NoSuchUnit") ||
		strings.Contains(s, "not found") ||
		strings.Contains(s, "not loaded") ||
		strings.Contains(s, "does not exist")
}
