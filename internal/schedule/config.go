// Package schedule holds the declarative notification schedule: the YAML
// config model and the occurrence planning that turns a frequency value
// into concrete instances for the next day.
package schedule

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeOfDay is an hour/minute pair with no date attached.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return TimeOfDay{}, fmt.Errorf("time must be in HH:MM format, got: %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("time out of range: %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the offset from midnight in minutes.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier in the day than o.
func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Minutes() < o.Minutes()
}

// On anchors the time of day to a concrete calendar date in the local zone.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// TimeRange is a window within a single day. From must be strictly
// before To; NewTimeRange enforces this at construction.
type TimeRange struct {
	From TimeOfDay
	To   TimeOfDay
}

// NewTimeRange builds a validated TimeRange.
func NewTimeRange(from, to TimeOfDay) (TimeRange, error) {
	if !from.Before(to) {
		return TimeRange{}, fmt.Errorf("from_time (%s) must be before to_time (%s)", from, to)
	}
	return TimeRange{From: from, To: to}, nil
}

// Duration returns the length of the window.
func (r TimeRange) Duration() time.Duration {
	return time.Duration(r.To.Minutes()-r.From.Minutes()) * time.Minute
}

// Timing is a tagged union: exactly one of a fixed time of day or a
// time window is set.
type Timing struct {
	At     *TimeOfDay
	Window *TimeRange
}

// IsWindow reports whether the timing is a range rather than a fixed time.
func (t Timing) IsWindow() bool {
	return t.Window != nil
}

func (t Timing) String() string {
	if t.Window != nil {
		return fmt.Sprintf("%s-%s", t.Window.From, t.Window.To)
	}
	if t.At != nil {
		return t.At.String()
	}
	return "(unset)"
}

// Definition is one notification rule: when it may fire, what prompt is
// handed to the agent, and how often it occurs per day.
//
// Frequency semantics: values in [0,1) are a per-day probability of one
// occurrence; values >= 1 guarantee floor(frequency) occurrences plus
// one more with probability equal to the fractional part.
type Definition struct {
	Timing    Timing
	Prompt    string
	Frequency float64
}

// Config maps definition names (unique, used for OS-level unit naming)
// to their definitions. It is loaded fresh from the YAML file at the
// start of every scheduling run and never cached across runs.
type Config struct {
	Notifications map[string]Definition
}

// Names returns the definition names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Notifications))
	for name := range c.Notifications {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// rawEntry is the on-disk YAML shape of a single definition.
type rawEntry struct {
	Hour       string    `yaml:"hour,omitempty"`
	HoursRange *rawRange `yaml:"hours_range,omitempty"`
	Prompt     string    `yaml:"prompt"`
	Frequency  *float64  `yaml:"frequency"`
}

type rawRange struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Parse decodes and validates a schedule config document. Any invalid
// entry rejects the whole document; no partial schedule is ever returned.
func Parse(data []byte) (*Config, error) {
	raw := map[string]rawEntry{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse schedule config: %w", err)
	}

	cfg := &Config{Notifications: make(map[string]Definition, len(raw))}
	for name, entry := range raw {
		def, err := entry.toDefinition()
		if err != nil {
			return nil, fmt.Errorf("notification %q: %w", name, err)
		}
		cfg.Notifications[name] = def
	}
	return cfg, nil
}

func (e rawEntry) toDefinition() (Definition, error) {
	var def Definition

	switch {
	case e.Hour != "" && e.HoursRange != nil:
		return def, fmt.Errorf(`both "hour" and "hours_range" specified, only one timing field is allowed`)
	case e.Hour != "":
		at, err := ParseTimeOfDay(e.Hour)
		if err != nil {
			return def, fmt.Errorf("hour: %w", err)
		}
		def.Timing.At = &at
	case e.HoursRange != nil:
		from, err := ParseTimeOfDay(e.HoursRange.From)
		if err != nil {
			return def, fmt.Errorf("hours_range.from: %w", err)
		}
		to, err := ParseTimeOfDay(e.HoursRange.To)
		if err != nil {
			return def, fmt.Errorf("hours_range.to: %w", err)
		}
		r, err := NewTimeRange(from, to)
		if err != nil {
			return def, fmt.Errorf("hours_range: %w", err)
		}
		def.Timing.Window = &r
	default:
		return def, fmt.Errorf(`missing timing: one of "hour" or "hours_range" is required`)
	}

	if e.Prompt == "" {
		return def, fmt.Errorf(`missing required field "prompt"`)
	}
	def.Prompt = e.Prompt

	if e.Frequency == nil {
		return def, fmt.Errorf(`missing required field "frequency"`)
	}
	if *e.Frequency < 0 {
		return def, fmt.Errorf("frequency must be non-negative, got: %v", *e.Frequency)
	}
	def.Frequency = *e.Frequency

	return def, nil
}

// Marshal renders the config back to the YAML file format. A parsed
// config marshalled and re-parsed yields identical definitions.
func (c *Config) Marshal() ([]byte, error) {
	raw := make(map[string]rawEntry, len(c.Notifications))
	for name, def := range c.Notifications {
		freq := def.Frequency
		entry := rawEntry{Prompt: def.Prompt, Frequency: &freq}
		if def.Timing.Window != nil {
			entry.HoursRange = &rawRange{
				From: def.Timing.Window.From.String(),
				To:   def.Timing.Window.To.String(),
			}
		} else if def.Timing.At != nil {
			entry.Hour = def.Timing.At.String()
		}
		raw[name] = entry
	}
	return yaml.Marshal(raw)
}

// Load reads and parses the schedule config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule config: %w", err)
	}
	return Parse(data)
}

// Save atomically rewrites the schedule config file at path.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("marshal schedule config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write schedule config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace schedule config: %w", err)
	}
	return nil
}

// DefaultPath returns the per-user standard location of the schedule
// config file: <user config dir>/claro/notification-schedule.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "claro", "notification-schedule.yaml"), nil
}
