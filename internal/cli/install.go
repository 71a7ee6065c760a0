package cli

import (
	"fmt"
	"os"

	"github.com/claroapp/claro-notify/internal/platform/systemd"
	"github.com/claroapp/claro-notify/internal/schedule"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the recurring daily scheduler timer",
	Long: "Installs an OS timer that runs `claro-notify schedule` once a day, late\n" +
		"enough that tomorrow's plan is final. Safe to run repeatedly: an already\n" +
		"installed timer is re-enabled, never duplicated.",
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the recurring daily scheduler timer",
	Long: "Stops and disables the daily scheduler timer. Notification timers already\n" +
		"armed for tomorrow still fire; they clean themselves up afterwards.",
	RunE: runUninstall,
}

var (
	installPlatform string
	installTime     string
	installCommand  string
)

func init() {
	installCmd.Flags().StringVar(&installPlatform, "platform", defaultPlatform(), "timer backend: linux or android")
	installCmd.Flags().StringVar(&installTime, "time", "", "daily run time HH:MM (default: "+cfg.Schedule.DailyRun+")")
	installCmd.Flags().StringVar(&installCommand, "command", "", "scheduler command (default: this executable)")
	uninstallCmd.Flags().StringVar(&installPlatform, "platform", defaultPlatform(), "timer backend: linux or android")
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	runAt := installTime
	if runAt == "" {
		runAt = cfg.Schedule.DailyRun
	}
	at, err := schedule.ParseTimeOfDay(runAt)
	if err != nil {
		return fmt.Errorf("daily run time: %w", err)
	}

	command, err := notifyCommand(installCommand)
	if err != nil {
		return err
	}

	timers, cleanup, err := newTimerManager(ctx, installPlatform, cfg.App.Name)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := timers.ScheduleDaily(ctx, command, []string{"schedule"}, at); err != nil {
		return fmt.Errorf("install daily scheduler: %w", err)
	}

	fmt.Fprintf(os.Stderr, "daily scheduler installed, runs at %s\n", at)
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	timers, cleanup, err := newTimerManager(ctx, installPlatform, cfg.App.Name)
	if err != nil {
		return err
	}
	defer cleanup()

	sd, ok := timers.(*systemd.TimerManager)
	if !ok {
		// Android has no uninstall path: the repeating alarm dies with the
		// app, and re-installing replaces it in place.
		return fmt.Errorf("uninstall is only supported on linux")
	}
	if err := sd.CancelDaily(ctx); err != nil {
		return fmt.Errorf("uninstall daily scheduler: %w", err)
	}

	fmt.Fprintln(os.Stderr, "daily scheduler removed")
	return nil
}
