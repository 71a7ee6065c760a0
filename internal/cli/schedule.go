package cli

import (
	"fmt"
	"os"

	"github.com/claroapp/claro-notify/internal/schedule"
	"github.com/claroapp/claro-notify/internal/scheduler"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Plan and arm tomorrow's notification timers",
	Long: "Reads the schedule config, decides per notification how many times it\n" +
		"fires tomorrow (weighted by its frequency), and arms an OS timer for\n" +
		"each occurrence. Meant to run once a day from the installed daily timer.",
	RunE: runSchedule,
}

var (
	scheduleConfigPath string
	schedulePlatform   string
	scheduleCommand    string
)

func init() {
	scheduleCmd.Flags().StringVar(&scheduleConfigPath, "config", "", "schedule config path (default: user config dir)")
	scheduleCmd.Flags().StringVar(&schedulePlatform, "platform", defaultPlatform(), "timer backend: linux or android")
	scheduleCmd.Flags().StringVar(&scheduleCommand, "notify-command", "", "command timers run (default: this executable)")
}

// resolveConfigPath applies the --config flag or falls back to the
// per-user default location.
func resolveConfigPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return schedule.DefaultPath()
}

// notifyCommand resolves the command armed timers will execute: the
// --notify-command override or this binary itself.
func notifyCommand(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	path, err := resolveConfigPath(scheduleConfigPath)
	if err != nil {
		return err
	}
	sched, err := schedule.Load(path)
	if err != nil {
		return fmt.Errorf("load schedule config: %w", err)
	}

	command, err := notifyCommand(scheduleCommand)
	if err != nil {
		return err
	}

	timers, cleanup, err := newTimerManager(ctx, schedulePlatform, cfg.App.Name)
	if err != nil {
		return err
	}
	defer cleanup()

	sum := scheduler.New(timers).Run(ctx, sched, command, []string{"trigger"})

	// Skips and per-occurrence failures are already logged; a day with
	// nothing scheduled is still a successful run.
	fmt.Fprintf(os.Stderr, "scheduled %d notification(s) for tomorrow (%d skipped, %d failed)\n",
		sum.Scheduled, sum.Skipped, sum.Failed)
	return nil
}
