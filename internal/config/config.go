package config

import "fmt"

// Config holds all claro-notify configuration.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Agent    AgentConfig
	Schedule ScheduleConfig
}

// AppConfig identifies the application toward the OS (unit names,
// notification app name).
type AppConfig struct {
	Name string
}

// ServerConfig configures the local config API server.
type ServerConfig struct {
	Bind string
	Port int
}

// AgentConfig points at the assistant backend that generates
// notification text.
type AgentConfig struct {
	BackendURL string
}

// ScheduleConfig configures the scheduler runs.
type ScheduleConfig struct {
	Path     string // schedule YAML path; resolved at runtime when empty
	DailyRun string // HH:MM the daily scheduler fires
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		App: AppConfig{
			Name: "claro",
		},
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37878,
		},
		Agent: AgentConfig{
			BackendURL: "", // resolved at runtime via agent.NewBackend()
		},
		Schedule: ScheduleConfig{
			Path:     "", // resolved at runtime via schedule.DefaultPath()
			DailyRun: "23:30",
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
