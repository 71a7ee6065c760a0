package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/claroapp/claro-notify/internal/agent"
	"github.com/claroapp/claro-notify/internal/platform"
	"github.com/claroapp/claro-notify/internal/schedule"
	"github.com/spf13/cobra"
)

// appURL is opened when the user clicks a notification on desktop.
const appURL = "https://app.claro.chat"

// fallbackBody keeps the notification useful when the assistant
// backend is unreachable.
const fallbackBody = "I wanted to check in with you. Tap to open Claro."

const maxBodyLen = 200

var triggerCmd = &cobra.Command{
	Use:   "trigger <name>",
	Short: "Deliver one notification now",
	Long: "Generates text for the named notification via the assistant backend and\n" +
		"shows it. This is what armed timers execute when they fire; it can also\n" +
		"be run by hand to test a definition.",
	Args: cobra.ExactArgs(1),
	RunE: runTrigger,
}

var (
	triggerConfigPath string
	triggerPlatform   string
)

func init() {
	triggerCmd.Flags().StringVar(&triggerConfigPath, "config", "", "schedule config path (default: user config dir)")
	triggerCmd.Flags().StringVar(&triggerPlatform, "platform", defaultPlatform(), "notification backend: linux or android")
}

func runTrigger(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name := args[0]

	path, err := resolveConfigPath(triggerConfigPath)
	if err != nil {
		return err
	}
	sched, err := schedule.Load(path)
	if err != nil {
		return fmt.Errorf("load schedule config: %w", err)
	}

	def, ok := sched.Notifications[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown notification %q; configured: %s\n",
			name, strings.Join(sched.Names(), ", "))
		return fmt.Errorf("unknown notification %q", name)
	}

	notifier, err := newNotifier(triggerPlatform, "Claro")
	if err != nil {
		return err
	}

	body := generateBody(ctx, agent.NewBackend(), def.Prompt)

	n := platform.Notification{
		Title:       "Claro",
		Body:        body,
		OnClicked:   openApp(triggerPlatform),
		OnDismissed: func() { log.Printf("notification %q dismissed", name) },
	}

	// Block until the user interacts or the wait window lapses. The
	// process is spawned per delivery, so there is nothing to return to.
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()
	if err := notifier.CreateNotification(waitCtx, n); err != nil {
		return fmt.Errorf("show notification %q: %w", name, err)
	}
	return nil
}

// generateBody asks the assistant backend for the notification text and
// degrades to a static body when the backend is down. A timer firing
// must always produce a visible notification.
func generateBody(ctx context.Context, client agent.Client, prompt string) string {
	genCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	text, err := client.Generate(genCtx, prompt)
	if err != nil {
		log.Printf("generate notification text: %v (using fallback)", err)
		return fallbackBody
	}
	return truncate(strings.TrimSpace(text), maxBodyLen)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// openApp returns the click action for the platform. On Android the
// content intent already brings the app forward, so the callback only
// logs; on desktop the click opens the web app.
func openApp(platformName string) func() {
	if platformName == "android" {
		return func() { log.Printf("notification clicked") }
	}
	return func() {
		if err := exec.Command("xdg-open", appURL).Start(); err != nil {
			log.Printf("open %s: %v", appURL, err)
		}
	}
}
