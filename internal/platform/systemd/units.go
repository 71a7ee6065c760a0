package systemd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/claroapp/claro-notify/internal/schedule"
)

// timeGist is the compact timestamp embedded in one-shot unit names.
// It makes names unique across occurrences and re-runs idempotent at
// the unit-name level.
const timeGist = "20060102-1504"

// oneShotUnitName builds the deterministic base name for a one-shot
// timer unit: <app>-notification[-<definition-name>]-<time-gist>.
// Unnamed occurrences omit the definition segment entirely.
func oneShotUnitName(appName, defName string, at time.Time) string {
	if defName == "" {
		return fmt.Sprintf("%s-notification-%s", appName, at.Format(timeGist))
	}
	return fmt.Sprintf("%s-notification-%s-%s", appName, sanitizeUnitName(defName), at.Format(timeGist))
}

// dailyUnitName is fixed per application so re-installation is
// idempotent regardless of the scheduled command.
func dailyUnitName(appName string) string {
	return appName + "-scheduler"
}

// sanitizeUnitName keeps only characters valid in a systemd unit name.
func sanitizeUnitName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == ':':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// onCalendar formats an absolute instant as a systemd calendar expression.
func onCalendar(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// dailyOnCalendar formats a time of day as an every-day calendar expression.
func dailyOnCalendar(at schedule.TimeOfDay) string {
	return fmt.Sprintf("*-*-* %02d:%02d:00", at.Hour, at.Minute)
}

// commandLine joins a command and its arguments for an Exec line,
// quoting arguments that contain whitespace.
func commandLine(command string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, command)
	for _, a := range args {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// oneShotServiceUnit renders the run-once service. ExecStopPost makes
// the unit clean itself up after the command ran: stop and disable the
// paired timer, remove both unit files, clean state, and reload — so
// completed one-shot timers never accumulate.
func oneShotServiceUnit(desc, command string, args []string, unitBase, unitDir string) string {
	servicePath := filepath.Join(unitDir, unitBase+".service")
	timerPath := filepath.Join(unitDir, unitBase+".timer")
	cleanup := fmt.Sprintf(
		"/bin/sh -c 'systemctl --user stop %[1]s.timer; systemctl --user disable %[1]s.timer; rm -f %[2]s %[3]s; systemctl --user clean --what=all %[1]s.service; systemctl --user daemon-reload'",
		unitBase, servicePath, timerPath,
	)

	return fmt.Sprintf(`[Unit]
Description=%s

[Service]
Type=oneshot
ExecStart=%s
ExecStopPost=%s
`, desc, commandLine(command, args), cleanup)
}

// oneShotTimerUnit renders the paired timer. For a time window the
// trigger anchors at the window start and RandomizedDelaySec spans the
// window, so systemd itself picks the random instant inside the range.
func oneShotTimerUnit(desc, calendar string, randomizedDelay time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Unit]\nDescription=Timer for %s\n\n[Timer]\nOnCalendar=%s\n", desc, calendar)
	if randomizedDelay > 0 {
		fmt.Fprintf(&b, "RandomizedDelaySec=%ds\n", int(randomizedDelay.Seconds()))
	}
	b.WriteString("\n[Install]\nWantedBy=timers.target\n")
	return b.String()
}

// dailyServiceUnit renders the recurring scheduler service.
func dailyServiceUnit(desc, command string, args []string) string {
	return fmt.Sprintf(`[Unit]
Description=%s

[Service]
Type=oneshot
ExecStart=%s
`, desc, commandLine(command, args))
}

// dailyTimerUnit renders the recurring timer. Persistent=true catches
// up a missed run after the machine was off at the trigger time.
func dailyTimerUnit(desc string, at schedule.TimeOfDay) string {
	return fmt.Sprintf(`[Unit]
Description=Timer for %s

[Timer]
OnCalendar=%s
Persistent=true

[Install]
WantedBy=timers.target
`, desc, dailyOnCalendar(at))
}
