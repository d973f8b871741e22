// Afhook runs the aura-frog learning hooks.
//
// The host assistant invokes one subcommand per lifecycle event and passes the
// event payload through environment variables. Notices for the user are
// printed to stdout; diagnostics go to stderr. Hook subcommands always exit 0
// so a learning failure never blocks the session.
//
// Usage:
//
//	# Classify a user prompt
//	CLAUDE_USER_INPUT="no, use const instead" afhook prompt
//
//	# Record a rejected workflow phase
//	afhook workflow-event REJECTED 2 wf-123 "too verbose"
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "afhook: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "afhook",
		Short: "Learning hooks for the aura-frog assistant plugin",
		Long: `afhook learns from user feedback, workflow events and repeated tool use,
and keeps a digest of learned patterns the assistant reads at session start.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close(cmd.Context())
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.projectDir, "project-dir", "", "project root (default: current directory)")

	root.AddCommand(
		a.hookCmd("prompt", "Learn from a submitted user prompt", a.registerPrompt),
		a.hookCmd("post-tool", "Learn from a successful tool call", a.registerPostTool),
		a.hookCmd("pre-tool", "Scan workflow files for user edits", a.registerPreTool),
		a.hookCmd("session-start", "Detect the project and load memory", a.registerSessionStart),
		a.workflowEventCmd(),
		a.memoryCmd(),
		a.statusCmd(),
		a.watchCmd(),
	)
	return root
}

// printNotices writes each notice on its own line.
func printNotices(w io.Writer, notices []string) {
	for _, n := range notices {
		fmt.Fprintln(w, n)
	}
}
