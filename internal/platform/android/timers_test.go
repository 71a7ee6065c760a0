package android

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/claroapp/claro-notify/internal/platform"
	"github.com/claroapp/claro-notify/internal/schedule"
)

type armedAlarm struct {
	at       time.Time
	start    time.Time
	interval time.Duration
	intent   PendingIntent
	exact    bool
}

type fakeAlarms struct {
	armed  []armedAlarm
	setErr error
}

func (f *fakeAlarms) SetExactAndAllowWhileIdle(at time.Time, intent PendingIntent) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.armed = append(f.armed, armedAlarm{at: at, intent: intent, exact: true})
	return nil
}

func (f *fakeAlarms) SetRepeating(start time.Time, interval time.Duration, intent PendingIntent) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.armed = append(f.armed, armedAlarm{start: start, interval: interval, intent: intent})
	return nil
}

func (f *fakeAlarms) Cancel(intent PendingIntent) error { return nil }

type fakeRunner struct {
	commands []string
	args     [][]string
	err      error
}

func (f *fakeRunner) Run(command string, args []string) error {
	if f.err != nil {
		return f.err
	}
	f.commands = append(f.commands, command)
	f.args = append(f.args, args)
	return nil
}

func newTestTimerManager(t *testing.T) (*TimerManager, *fakeAlarms, *Dispatcher) {
	t.Helper()
	alarms := &fakeAlarms{}
	dispatcher := NewDispatcher()
	m, err := NewTimerManager(alarms, dispatcher)
	if err != nil {
		t.Fatal(err)
	}
	m.rng = rand.New(rand.NewSource(1))
	return m, alarms, dispatcher
}

func TestScheduleTimerFixed(t *testing.T) {
	m, alarms, _ := newTestTimerManager(t)

	at := time.Date(2025, 1, 2, 14, 30, 0, 0, time.Local)
	occ := schedule.Occurrence{
		Name:    "checkin",
		At:      at,
		Command: "/data/app/claro-notify",
		Args:    []string{"trigger", "checkin"},
	}

	handle, err := m.ScheduleTimer(context.Background(), occ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle == "" {
		t.Error("empty handle")
	}
	if len(alarms.armed) != 1 {
		t.Fatalf("armed %d alarms, want 1", len(alarms.armed))
	}

	a := alarms.armed[0]
	if !a.exact {
		t.Error("one-shot alarm must be exact and idle-tolerant")
	}
	if !a.at.Equal(at) {
		t.Errorf("armed at %v, want %v", a.at, at)
	}
	if a.intent.Extras["command"] != "/data/app/claro-notify" {
		t.Errorf("command extra = %q", a.intent.Extras["command"])
	}

	var args []string
	if err := json.Unmarshal([]byte(a.intent.Extras["args"]), &args); err != nil {
		t.Fatalf("args extra not JSON: %v", err)
	}
	if len(args) != 2 || args[0] != "trigger" || args[1] != "checkin" {
		t.Errorf("args = %v", args)
	}
}

func TestScheduleTimerWindowPicksPointInside(t *testing.T) {
	m, alarms, _ := newTestTimerManager(t)

	from := time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local)
	to := time.Date(2025, 1, 2, 11, 0, 0, 0, time.Local)
	occ := schedule.Occurrence{
		Name:    "reflect",
		Window:  &schedule.Window{From: from, To: to},
		Command: "/data/app/claro-notify",
	}

	for i := 0; i < 50; i++ {
		if _, err := m.ScheduleTimer(context.Background(), occ); err != nil {
			t.Fatal(err)
		}
	}
	for _, a := range alarms.armed {
		if a.at.Before(from) || !a.at.Before(to) {
			t.Fatalf("alarm at %v outside window [%v, %v)", a.at, from, to)
		}
	}
}

func TestScheduleTimerDistinctRequestCodes(t *testing.T) {
	m, alarms, _ := newTestTimerManager(t)
	occ := schedule.Occurrence{
		Name:    "checkin",
		At:      time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local),
		Command: "/data/app/claro-notify",
	}

	seen := map[int]bool{}
	for i := 0; i < 20; i++ {
		if _, err := m.ScheduleTimer(context.Background(), occ); err != nil {
			t.Fatal(err)
		}
	}
	for _, a := range alarms.armed {
		if seen[a.intent.RequestCode] {
			t.Fatalf("request code %d reused; later alarms would replace earlier ones", a.intent.RequestCode)
		}
		seen[a.intent.RequestCode] = true
	}
}

func TestAlarmFiredSpawnsCommand(t *testing.T) {
	m, _, dispatcher := newTestTimerManager(t)
	runner := &fakeRunner{}
	m.runner = runner

	handled := dispatcher.Dispatch(Broadcast{
		Action: actionRunCommand,
		Extras: map[string]string{
			"command": "/data/app/claro-notify",
			"args":    `["trigger","checkin"]`,
		},
	})
	if !handled {
		t.Fatal("alarm broadcast not handled")
	}
	if len(runner.commands) != 1 || runner.commands[0] != "/data/app/claro-notify" {
		t.Errorf("commands = %v", runner.commands)
	}
	if len(runner.args[0]) != 2 || runner.args[0][1] != "checkin" {
		t.Errorf("args = %v", runner.args[0])
	}
}

func TestAlarmFiredBadPayload(t *testing.T) {
	m, _, dispatcher := newTestTimerManager(t)
	runner := &fakeRunner{}
	m.runner = runner

	dispatcher.Dispatch(Broadcast{Action: actionRunCommand, Extras: map[string]string{}})
	dispatcher.Dispatch(Broadcast{Action: actionRunCommand, Extras: map[string]string{
		"command": "/bin/x", "args": "{not json",
	}})

	if len(runner.commands) != 0 {
		t.Errorf("malformed broadcasts must not spawn, got %v", runner.commands)
	}
}

func TestScheduleDailyFixedRequestCode(t *testing.T) {
	m, alarms, _ := newTestTimerManager(t)
	ctx := context.Background()
	at := schedule.TimeOfDay{Hour: 23, Minute: 30}

	if err := m.ScheduleDaily(ctx, "/data/app/claro-notify", []string{"schedule"}, at); err != nil {
		t.Fatal(err)
	}
	if err := m.ScheduleDaily(ctx, "/data/app/claro-notify", []string{"schedule"}, at); err != nil {
		t.Fatal(err)
	}

	if len(alarms.armed) != 2 {
		t.Fatalf("armed %d alarms, want 2", len(alarms.armed))
	}
	if alarms.armed[0].intent.RequestCode != alarms.armed[1].intent.RequestCode {
		t.Error("daily alarm must reuse its fixed request code so re-arming replaces")
	}
	if alarms.armed[0].interval != 24*time.Hour {
		t.Errorf("interval = %v, want 24h", alarms.armed[0].interval)
	}
}

func TestScheduleDailyStartTime(t *testing.T) {
	m, alarms, _ := newTestTimerManager(t)
	at := schedule.TimeOfDay{Hour: 9}

	// Before 09:00: first fire is today.
	m.now = func() time.Time { return time.Date(2025, 1, 2, 8, 0, 0, 0, time.Local) }
	if err := m.ScheduleDaily(context.Background(), "/bin/x", nil, at); err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local)
	if !alarms.armed[0].start.Equal(want) {
		t.Errorf("start = %v, want %v", alarms.armed[0].start, want)
	}

	// After 09:00: first fire is tomorrow.
	m.now = func() time.Time { return time.Date(2025, 1, 2, 10, 0, 0, 0, time.Local) }
	if err := m.ScheduleDaily(context.Background(), "/bin/x", nil, at); err != nil {
		t.Fatal(err)
	}
	want = time.Date(2025, 1, 3, 9, 0, 0, 0, time.Local)
	if !alarms.armed[1].start.Equal(want) {
		t.Errorf("start = %v, want %v", alarms.armed[1].start, want)
	}
}

func TestCancelTimerUnsupported(t *testing.T) {
	m, _, _ := newTestTimerManager(t)

	err := m.CancelTimer(context.Background(), "alarm-42")
	if err == nil {
		t.Fatal("cancel must fail loudly, not silently no-op")
	}
	if !errors.Is(err, platform.ErrUnsupported) {
		t.Errorf("error %v is not ErrUnsupported", err)
	}
}

func TestScheduleTimerAlarmError(t *testing.T) {
	m, alarms, _ := newTestTimerManager(t)
	alarms.setErr = errors.New("alarm service unavailable")

	_, err := m.ScheduleTimer(context.Background(), schedule.Occurrence{
		Name: "checkin",
		At:   time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local),
	})
	if err == nil {
		t.Error("alarm service errors must propagate")
	}
}

func TestDispatcherRejectsDuplicateAction(t *testing.T) {
	d := NewDispatcher()
	if err := d.Register("a", func(Broadcast) {}); err != nil {
		t.Fatal(err)
	}
	if err := d.Register("a", func(Broadcast) {}); err == nil {
		t.Error("duplicate registration must error")
	}
}
