// Package agent talks to the externally hosted assistant that turns a
// notification prompt into the text shown to the user. The runtime
// itself (conversation graph, memory) is not ours; this is a thin
// collaborator client.
package agent

import "context"

// Client generates notification text from a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
