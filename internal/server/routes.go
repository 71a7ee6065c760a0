package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"

	"github.com/claroapp/claro-notify/internal/schedule"
)

// JSON shape of a notification definition, mirroring the YAML config:
// exactly one of hour or hours_range, plus prompt and frequency.
type entryJSON struct {
	Hour       string     `json:"hour,omitempty"`
	HoursRange *rangeJSON `json:"hours_range,omitempty"`
	Prompt     string     `json:"prompt"`
	Frequency  float64    `json:"frequency"`
}

type rangeJSON struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type configJSON struct {
	Notifications map[string]entryJSON `json:"notifications"`
}

func configToJSON(cfg *schedule.Config) configJSON {
	out := configJSON{Notifications: make(map[string]entryJSON, len(cfg.Notifications))}
	for name, def := range cfg.Notifications {
		e := entryJSON{Prompt: def.Prompt, Frequency: def.Frequency}
		if def.Timing.IsWindow() {
			e.HoursRange = &rangeJSON{
				From: def.Timing.Window.From.String(),
				To:   def.Timing.Window.To.String(),
			}
		} else {
			e.Hour = def.Timing.At.String()
		}
		out.Notifications[name] = e
	}
	return out
}

func configFromJSON(in configJSON) (*schedule.Config, error) {
	cfg := &schedule.Config{Notifications: make(map[string]schedule.Definition, len(in.Notifications))}
	for name, e := range in.Notifications {
		def, err := definitionFromJSON(name, e)
		if err != nil {
			return nil, err
		}
		cfg.Notifications[name] = def
	}
	return cfg, nil
}

func definitionFromJSON(name string, e entryJSON) (schedule.Definition, error) {
	var def schedule.Definition

	switch {
	case e.Hour != "" && e.HoursRange != nil:
		return def, fmt.Errorf(`notification %q: both "hour" and "hours_range" specified, only one timing field is allowed`, name)
	case e.Hour != "":
		at, err := schedule.ParseTimeOfDay(e.Hour)
		if err != nil {
			return def, fmt.Errorf("notification %q: hour: %w", name, err)
		}
		def.Timing = schedule.Timing{At: &at}
	case e.HoursRange != nil:
		from, err := schedule.ParseTimeOfDay(e.HoursRange.From)
		if err != nil {
			return def, fmt.Errorf("notification %q: hours_range.from: %w", name, err)
		}
		to, err := schedule.ParseTimeOfDay(e.HoursRange.To)
		if err != nil {
			return def, fmt.Errorf("notification %q: hours_range.to: %w", name, err)
		}
		tr, err := schedule.NewTimeRange(from, to)
		if err != nil {
			return def, fmt.Errorf("notification %q: hours_range: %w", name, err)
		}
		def.Timing = schedule.Timing{Window: &tr}
	default:
		return def, fmt.Errorf(`notification %q: missing timing: one of "hour" or "hours_range" is required`, name)
	}

	if e.Prompt == "" {
		return def, fmt.Errorf(`notification %q: missing required field "prompt"`, name)
	}
	if e.Frequency < 0 {
		return def, fmt.Errorf("notification %q: frequency must be non-negative, got: %v", name, e.Frequency)
	}
	def.Prompt = e.Prompt
	def.Frequency = e.Frequency
	return def, nil
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := schedule.Load(s.schedulePath)
	if errors.Is(err, fs.ErrNotExist) {
		// No config yet is a valid state, not an error.
		cfg = &schedule.Config{Notifications: map[string]schedule.Definition{}}
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(configToJSON(cfg))
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var req configJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	cfg, err := configFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := cfg.Save(s.schedulePath); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The new config takes effect on the next daily scheduling pass.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":        "saved",
		"notifications": len(cfg.Notifications),
	})
}

func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) {
	if s.prepare == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}

	sum, err := s.prepare(r.Context())
	if err != nil {
		log.Printf("prepare failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sum)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	cfg, err := schedule.Load(s.schedulePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// leave names empty
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	default:
		names = cfg.Names()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"config_path":   s.schedulePath,
		"notifications": names,
		"daily_run":     s.dailyRun,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
