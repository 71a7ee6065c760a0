package android

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"github.com/claroapp/claro-notify/internal/platform"
	"github.com/claroapp/claro-notify/internal/schedule"
)

const (
	// actionRunCommand is the broadcast action a fired alarm delivers.
	actionRunCommand = "app.claro.notify.RUN_COMMAND"

	// dailyRequestCode is fixed so re-arming the daily alarm replaces
	// the previous registration instead of duplicating it.
	dailyRequestCode = 1001

	dailyInterval = 24 * time.Hour
)

// CommandRunner spawns a scheduled command as a background process.
type CommandRunner interface {
	Run(command string, args []string) error
}

// execRunner starts the command detached and does not wait for it.
type execRunner struct{}

func (execRunner) Run(command string, args []string) error {
	cmd := exec.Command(command, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child in the background; the alarm mechanism has no
	// notion of the command's exit status.
	go cmd.Wait()
	return nil
}

// TimerManager arms alarms through the platform alarm service. The
// alarm mechanism cannot run commands itself, so the manager also owns
// the receiver that turns a fired alarm back into a spawned process.
type TimerManager struct {
	alarms AlarmService
	runner CommandRunner
	now    func() time.Time
	rng    *rand.Rand
}

// NewTimerManager creates the alarm-backed timer manager and registers
// its fired-alarm receiver on the dispatcher.
func NewTimerManager(alarms AlarmService, dispatcher *Dispatcher) (*TimerManager, error) {
	m := &TimerManager{
		alarms: alarms,
		runner: execRunner{},
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := dispatcher.Register(actionRunCommand, m.onAlarmFired); err != nil {
		return nil, fmt.Errorf("register alarm receiver: %w", err)
	}
	return m, nil
}

// onAlarmFired decodes the intent extras and spawns the scheduled
// command as a background process.
func (m *TimerManager) onAlarmFired(b Broadcast) {
	command := b.Extras["command"]
	if command == "" {
		log.Printf("android: alarm fired without a command, dropping")
		return
	}

	var args []string
	if raw := b.Extras["args"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			log.Printf("android: alarm %q: bad args payload: %v", command, err)
			return
		}
	}

	if err := m.runner.Run(command, args); err != nil {
		log.Printf("android: alarm %q: spawn failed: %v", command, err)
		return
	}
	log.Printf("android: alarm fired, spawned %s", command)
}

// ScheduleTimer resolves a concrete instant (a uniform random point
// inside a window), then arms an exact idle-tolerant one-shot alarm
// carrying the command and JSON-encoded args.
func (m *TimerManager) ScheduleTimer(ctx context.Context, occ schedule.Occurrence) (string, error) {
	at := occ.At
	if occ.IsWindow() {
		at = occ.Window.From.Add(time.Duration(m.rng.Int63n(int64(occ.Window.Duration()))))
	}

	args, err := json.Marshal(occ.Args)
	if err != nil {
		return "", fmt.Errorf("schedule timer %q: encode args: %w", occ.Name, err)
	}

	// Request codes must differ per occurrence or later alarms would
	// replace earlier ones; a fresh UUID's hash is unique enough for
	// alarms that all live under 48 hours.
	code := int(uuid.New().ID() & 0x7fffffff)
	intent := PendingIntent{
		RequestCode: code,
		Action:      actionRunCommand,
		Extras: map[string]string{
			"command": occ.Command,
			"args":    string(args),
			"name":    occ.Name,
		},
	}

	if err := m.alarms.SetExactAndAllowWhileIdle(at, intent); err != nil {
		return "", fmt.Errorf("schedule timer %q: arm alarm: %w", occ.Name, err)
	}
	return fmt.Sprintf("alarm-%d", code), nil
}

// ScheduleDaily arms the repeating daily alarm with the fixed request
// code, starting at the next occurrence of the given time of day
// (today if still ahead, otherwise tomorrow).
func (m *TimerManager) ScheduleDaily(ctx context.Context, command string, args []string, at schedule.TimeOfDay) error {
	encoded, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("schedule daily: encode args: %w", err)
	}

	now := m.now()
	start := at.On(now)
	if !start.After(now) {
		start = at.On(now.AddDate(0, 0, 1))
	}

	intent := PendingIntent{
		RequestCode: dailyRequestCode,
		Action:      actionRunCommand,
		Extras: map[string]string{
			"command": command,
			"args":    string(encoded),
		},
	}
	if err := m.alarms.SetRepeating(start, dailyInterval, intent); err != nil {
		return fmt.Errorf("schedule daily: arm repeating alarm: %w", err)
	}
	return nil
}

// CancelTimer is deliberately unimplemented on this backend: alarms are
// fire-and-forget once armed. Returning ErrUnsupported (rather than
// silently succeeding) keeps callers from mistaking it for a cancel.
func (m *TimerManager) CancelTimer(ctx context.Context, handle string) error {
	return fmt.Errorf("cancel timer %q on android: %w", handle, platform.ErrUnsupported)
}
