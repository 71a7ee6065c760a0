// Package scheduler drives one daily scheduling pass: load the schedule
// config, plan tomorrow's occurrences, and arm a timer for each one.
// The process is short-lived and stateless; everything durable lives in
// the OS timer primitives behind the platform backend.
package scheduler

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/claroapp/claro-notify/internal/platform"
	"github.com/claroapp/claro-notify/internal/schedule"
)

// Runner schedules one day's worth of notifications.
type Runner struct {
	Timers platform.TimerManager
	Rand   *rand.Rand
	Now    func() time.Time
}

// New creates a Runner with a time-seeded random source.
func New(timers platform.TimerManager) *Runner {
	return &Runner{
		Timers: timers,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		Now:    time.Now,
	}
}

// Summary reports what a pass did. Failed occurrences are logged and
// skipped; they do not abort the run and are simply absent from
// tomorrow's notifications until the next daily pass.
type Summary struct {
	Scheduled int      `json:"scheduled"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Handles   []string `json:"handles,omitempty"`
}

// Run plans and schedules every definition in cfg for tomorrow. Each
// armed timer executes command with args plus the definition name.
func (r *Runner) Run(ctx context.Context, cfg *schedule.Config, command string, args []string) Summary {
	var sum Summary
	tomorrow := schedule.Tomorrow(r.Now())

	for _, name := range cfg.Names() {
		def := cfg.Notifications[name]
		occs := schedule.Plan(name, def, tomorrow, command, args, r.Rand)
		if len(occs) == 0 {
			log.Printf("scheduler: skipping %q (frequency=%v, random draw failed)", name, def.Frequency)
			sum.Skipped++
			continue
		}

		for _, occ := range occs {
			handle, err := r.Timers.ScheduleTimer(ctx, occ)
			if err != nil {
				log.Printf("scheduler: failed to schedule %q: %v", occ.Name, err)
				sum.Failed++
				continue
			}
			log.Printf("scheduler: scheduled %q at %s (handle %s)", occ.Name, occTiming(occ), handle)
			sum.Scheduled++
			sum.Handles = append(sum.Handles, handle)
		}
	}
	return sum
}

func occTiming(occ schedule.Occurrence) string {
	if occ.IsWindow() {
		return occ.Window.From.Format("15:04") + "-" + occ.Window.To.Format("15:04")
	}
	return occ.At.Format("2006-01-02 15:04")
}
