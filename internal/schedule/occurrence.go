package schedule

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Window is a TimeRange anchored to a concrete date on both ends.
type Window struct {
	From time.Time
	To   time.Time
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.To.Sub(w.From)
}

// Occurrence is one concrete, dated instance of a notification
// definition, ready to hand to a timer backend. Exactly one of At or
// Window is set. Windows are passed through unresolved: the backend
// picks the concrete instant inside the range at schedule time.
type Occurrence struct {
	Name    string
	At      time.Time
	Window  *Window
	Command string
	Args    []string
}

// IsWindow reports whether the occurrence carries a time window rather
// than a fixed instant.
func (o Occurrence) IsWindow() bool {
	return o.Window != nil
}

// Tomorrow returns the calendar day after now, normalized to midnight
// in now's location.
func Tomorrow(now time.Time) time.Time {
	next := now.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, now.Location())
}

// Plan resolves a definition against the given day and decides, with a
// single random draw, how many instances to schedule:
//
//	base = floor(frequency)
//	count = base + (1 if draw < frequency-base else 0)
//
// A zero count returns an empty slice — a normal skip, not an error.
// Multiple instances get disambiguated names (<name>-0, <name>-1, ...);
// a single instance keeps the base name. Each instance runs command
// with args plus the base definition name appended.
func Plan(name string, def Definition, day time.Time, command string, args []string, rng *rand.Rand) []Occurrence {
	base := int(math.Floor(def.Frequency))
	fractional := def.Frequency - float64(base)

	count := base
	if rng.Float64() < fractional {
		count++
	}
	if count == 0 {
		return nil
	}

	occs := make([]Occurrence, 0, count)
	for i := 0; i < count; i++ {
		occName := name
		if count > 1 {
			occName = fmt.Sprintf("%s-%d", name, i)
		}

		occ := Occurrence{
			Name:    occName,
			Command: command,
			Args:    append(append([]string(nil), args...), name),
		}
		if def.Timing.Window != nil {
			occ.Window = &Window{
				From: def.Timing.Window.From.On(day),
				To:   def.Timing.Window.To.On(day),
			}
		} else if def.Timing.At != nil {
			occ.At = def.Timing.At.On(day)
		}
		occs = append(occs, occ)
	}
	return occs
}
