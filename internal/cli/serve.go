package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claroapp/claro-notify/internal/schedule"
	"github.com/claroapp/claro-notify/internal/scheduler"
	"github.com/claroapp/claro-notify/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local config API server",
	Long: "Serves the HTTP API the Claro app uses to read and edit the notification\n" +
		"schedule, and to trigger a scheduling pass without waiting for the daily\n" +
		"timer. Binds to localhost only.",
	RunE: runServe,
}

var (
	serveConfigPath string
	servePlatform   string
)

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "schedule config path (default: user config dir)")
	serveCmd.Flags().StringVar(&servePlatform, "platform", defaultPlatform(), "timer backend: linux or android")
}

func runServe(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath(serveConfigPath)
	if err != nil {
		return err
	}

	command, err := notifyCommand("")
	if err != nil {
		return err
	}

	// Each prepare request gets its own backend connection: the server
	// may run for days and a held D-Bus connection would go stale.
	prepare := func(ctx context.Context) (scheduler.Summary, error) {
		sched, err := schedule.Load(path)
		if err != nil {
			return scheduler.Summary{}, fmt.Errorf("load schedule config: %w", err)
		}
		timers, cleanup, err := newTimerManager(ctx, servePlatform, cfg.App.Name)
		if err != nil {
			return scheduler.Summary{}, err
		}
		defer cleanup()
		return scheduler.New(timers).Run(ctx, sched, command, []string{"trigger"}), nil
	}

	srv := server.New(path, cfg.Schedule.DailyRun, prepare, VersionString())

	// Check for CLARO_NOTIFY_ADDR env override
	addr := cfg.ListenAddr()
	if env := os.Getenv("CLARO_NOTIFY_ADDR"); env != "" {
		addr = env
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "claro-notify serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  schedule: %s\n", path)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
