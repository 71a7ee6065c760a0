// Package systemd implements the Linux backend: one-shot and daily
// timers as user-session systemd units managed over D-Bus, and desktop
// notifications via the freedesktop notification daemon.
package systemd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	sd "github.com/coreos/go-systemd/v22/dbus"
)

// Manager is the narrow slice of the systemd user manager D-Bus API the
// backend needs. Tests run against a fake; production uses Connect.
type Manager interface {
	// ListUnitFiles returns the paths of all installed unit files.
	ListUnitFiles(ctx context.Context) ([]string, error)
	EnableUnitFiles(ctx context.Context, files []string) error
	DisableUnitFiles(ctx context.Context, files []string) error
	StartUnit(ctx context.Context, name string) error
	StopUnit(ctx context.Context, name string) error
	Reload(ctx context.Context) error
	Close()
}

// userManager adapts the go-systemd connection to the Manager interface.
type userManager struct {
	conn *sd.Conn
}

// Connect opens a D-Bus connection to the per-user systemd instance.
// No root required: all units live in the user session.
func Connect(ctx context.Context) (Manager, error) {
	conn, err := sd.NewUserConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect user systemd: %w", err)
	}
	return &userManager{conn: conn}, nil
}

func (m *userManager) ListUnitFiles(ctx context.Context) ([]string, error) {
	files, err := m.conn.ListUnitFilesContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unit files: %w", err)
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}

func (m *userManager) EnableUnitFiles(ctx context.Context, files []string) error {
	// runtime=false: persist across logins; force=true: replace stale links.
	if _, _, err := m.conn.EnableUnitFilesContext(ctx, files, false, true); err != nil {
		return fmt.Errorf("enable unit files: %w", err)
	}
	return nil
}

func (m *userManager) DisableUnitFiles(ctx context.Context, files []string) error {
	if _, err := m.conn.DisableUnitFilesContext(ctx, files, false); err != nil {
		return fmt.Errorf("disable unit files: %w", err)
	}
	return nil
}

func (m *userManager) StartUnit(ctx context.Context, name string) error {
	if _, err := m.conn.StartUnitContext(ctx, name, "replace", nil); err != nil {
		return fmt.Errorf("start unit %s: %w", name, err)
	}
	return nil
}

func (m *userManager) StopUnit(ctx context.Context, name string) error {
	if _, err := m.conn.StopUnitContext(ctx, name, "replace", nil); err != nil {
		return fmt.Errorf("stop unit %s: %w", name, err)
	}
	return nil
}

func (m *userManager) Reload(ctx context.Context) error {
	if err := m.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("reload systemd: %w", err)
	}
	return nil
}

func (m *userManager) Close() {
	m.conn.Close()
}

// DefaultUnitDir returns the user unit directory systemd reads:
// <user config dir>/systemd/user.
func DefaultUnitDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "systemd", "user"), nil
}
