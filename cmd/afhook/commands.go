package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aurafrog/aura-frog/internal/hooks"
	"github.com/aurafrog/aura-frog/internal/learning"
	"github.com/aurafrog/aura-frog/internal/memory"
)

// errUsage marks invalid arguments.
var errUsage = errors.New("usage")

func (a *app) workflowEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workflow-event <type> <phase> [workflow_id] [reason] [attempt]",
		Short: "Record a workflow phase event",
		Long: `Record an action taken on a workflow phase.

Types: APPROVED, REJECTED, MODIFIED, CANCELLED, PHASE_START, WORKFLOW_COMPLETE.
The workflow id falls back to AF_WORKFLOW_ID, then .claude/active-workflow.txt.

Examples:
  afhook workflow-event APPROVED 1
  afhook workflow-event REJECTED 2 wf-123 "missing error handling" 2`,
		Args: cobra.RangeArgs(2, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ev, err := a.parseWorkflowEvent(ctx, args)
			if err != nil {
				return err
			}
			if !a.cfg.LearningEnabled() {
				return nil
			}
			rec := learning.NewWorkflowRecorder(a.store, a.logger.Underlying(), a.metrics)
			if err := rec.Record(ctx, ev); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for phase %s (%s)\n", ev.EventType, ev.Phase, ev.WorkflowID)
			return nil
		},
	}
}

func (a *app) parseWorkflowEvent(ctx context.Context, args []string) (*learning.WorkflowEvent, error) {
	et, err := learning.ParseEventType(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	in := hooks.InputFromEnv(nil)
	ev := &learning.WorkflowEvent{
		EventType:   et,
		Phase:       args[1],
		WorkflowID:  in.WorkflowID,
		SessionID:   in.SessionID,
		ProjectName: a.projectName(ctx, in.ProjectName),
		Agent:       in.Agent,
	}
	if len(args) > 2 && args[2] != "" {
		ev.WorkflowID = args[2]
	}
	if ev.WorkflowID == "" {
		ev.WorkflowID = learning.ActiveWorkflowID(a.projectDir)
	}
	if ev.WorkflowID == "" {
		return nil, fmt.Errorf("%w: %v", errUsage, learning.ErrNoWorkflowID)
	}
	if len(args) > 3 {
		ev.Reason = args[3]
	}
	if len(args) > 4 {
		n, err := strconv.Atoi(args[4])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: attempt must be a positive integer, got %q", errUsage, args[4])
		}
		ev.AttemptCount = n
	}
	return ev, nil
}

func (a *app) memoryCmd() *cobra.Command {
	var force, clearCache bool
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Load learned memory into the session context file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := memory.NewLoader(a.cfg, a.store, a.logger.Underlying())
			if clearCache {
				if err := loader.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Memory cache cleared")
				return nil
			}

			res, err := loader.Load(cmd.Context(), force)
			if err != nil {
				if isQuietMemoryErr(err) {
					fmt.Fprintf(cmd.OutOrStdout(), "Memory not loaded: %v\n", err)
					return nil
				}
				return err
			}
			source := "store"
			if res.Cached {
				source = "cache"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d item(s) from %s into %s\n", res.Count, source, loader.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reload even if the cached context is fresh")
	cmd.Flags().BoolVar(&clearCache, "clear", false, "remove the cached context")
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show learning flags and stored counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := learning.GetStatus(cmd.Context(), a.cfg, a.store)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			fmt.Fprint(cmd.OutOrStdout(), st.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch workflow files and learn from user edits until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.LearningEnabled() {
				return errors.New("learning is disabled")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			return a.scanner(a.projectName(ctx, hooks.InputFromEnv(nil).ProjectName)).Watch(ctx, func(notice string) {
				fmt.Fprintln(out, notice)
			})
		},
	}
}
