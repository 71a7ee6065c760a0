package cli

import (
	"github.com/claroapp/claro-notify/internal/config"
	"github.com/spf13/cobra"
)

// cfg holds process-wide defaults; flags and env vars override per use.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "claro-notify",
	Short: "Probability-weighted check-in notifications for Claro",
	Long: "claro-notify schedules Claro's daily check-in notifications as OS-native\n" +
		"timers (systemd user units on Linux) and delivers them with text generated\n" +
		"by the Claro assistant backend. The scheduler itself holds no state: each\n" +
		"daily run reads the schedule config and arms tomorrow's timers.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(serveCmd)
}
