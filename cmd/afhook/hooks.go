package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aurafrog/aura-frog/internal/editlearn"
	"github.com/aurafrog/aura-frog/internal/hooks"
	"github.com/aurafrog/aura-frog/internal/learning"
	"github.com/aurafrog/aura-frog/internal/logging"
	"github.com/aurafrog/aura-frog/internal/memory"
	"github.com/aurafrog/aura-frog/internal/project"
	"github.com/aurafrog/aura-frog/internal/smartlearn"
)

// hookCmd builds a host hook subcommand. Hook subcommands never fail: setup
// and handler errors are reported on stderr and the process exits 0.
func (a *app) hookCmd(use, short string, register func(*hooks.Manager) hooks.Event) *cobra.Command {
	var setupErr error
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupErr = a.setup(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if setupErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "afhook %s: %v\n", use, setupErr)
				return nil
			}
			ctx := cmd.Context()
			if !a.cfg.LearningEnabled() {
				return nil
			}

			in := hooks.InputFromEnv(nil)
			ctx = logging.WithSessionID(ctx, in.SessionID)
			ctx = logging.WithWorkflowID(ctx, in.WorkflowID)
			in.ProjectName = a.projectName(ctx, in.ProjectName)

			mgr := hooks.NewManager(a.logger.Underlying())
			event := register(mgr)
			notices, err := mgr.Execute(ctx, event, in)
			printNotices(cmd.OutOrStdout(), notices)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "afhook %s: %v\n", use, err)
			}
			return nil
		},
	}
}

func (a *app) registerPrompt(mgr *hooks.Manager) hooks.Event {
	mgr.RegisterHandler(hooks.EventUserPromptSubmit, "feedback", func(ctx context.Context, in *hooks.Input) ([]string, error) {
		msg := in.Message()
		if msg.WorkflowID == "" {
			msg.WorkflowID = learning.ActiveWorkflowID(a.projectDir)
		}
		pipeline := learning.NewPipeline(a.cfg, a.store, a.logger.Underlying(),
			learning.WithScrubber(a.scrubber(ctx)),
			learning.WithMetrics(a.metrics),
			learning.WithTracer(a.telemetry.Tracer("github.com/aurafrog/aura-frog/internal/learning")),
		)
		out := pipeline.Process(ctx, msg)
		if out.Notice == "" {
			return nil, nil
		}
		return []string{out.Notice}, nil
	})
	return hooks.EventUserPromptSubmit
}

func (a *app) registerPostTool(mgr *hooks.Manager) hooks.Event {
	mgr.RegisterHandler(hooks.EventPostToolUse, "smart-learn", func(ctx context.Context, in *hooks.Input) ([]string, error) {
		if smartlearn.IsToolFailure(in.ToolResult) {
			return nil, nil
		}
		tracker := smartlearn.NewTracker(a.cfg.Storage.Dir, a.store, a.logger.Underlying(), a.metrics)
		switch in.ToolName {
		case "Write", "Edit":
			if in.FilePath() == "" || in.ToolInput == "" {
				return nil, nil
			}
			return tracker.RecordWrite(ctx, in.ToolName, in.FilePath(), in.ToolInput), nil
		case "Bash":
			return tracker.RecordBash(ctx, in.ToolInput), nil
		default:
			return nil, nil
		}
	})
	return hooks.EventPostToolUse
}

func (a *app) registerPreTool(mgr *hooks.Manager) hooks.Event {
	mgr.RegisterHandler(hooks.EventPreToolUse, "edit-learn", func(ctx context.Context, in *hooks.Input) ([]string, error) {
		return a.scanner(in.ProjectName).Scan(ctx), nil
	})
	return hooks.EventPreToolUse
}

func (a *app) registerSessionStart(mgr *hooks.Manager) hooks.Event {
	mgr.RegisterHandler(hooks.EventSessionStart, "project-detect", func(ctx context.Context, in *hooks.Input) ([]string, error) {
		cache := project.NewCache(a.projectDir, a.logger.Underlying())
		d, err := cache.Detect(a.projectDir, false)
		if err != nil {
			return nil, fmt.Errorf("detecting project: %w", err)
		}
		a.logger.Info(ctx, "project detected",
			zap.String("project", d.Name),
			zap.String("type", d.Type),
			zap.String("framework", d.Framework))
		return nil, nil
	})
	mgr.RegisterHandler(hooks.EventSessionStart, "memory", func(ctx context.Context, in *hooks.Input) ([]string, error) {
		res, err := memory.NewLoader(a.cfg, a.store, a.logger.Underlying()).Load(ctx, false)
		if err != nil {
			if isQuietMemoryErr(err) {
				return nil, nil
			}
			return nil, err
		}
		if res.Cached {
			return nil, nil
		}
		return []string{fmt.Sprintf("🧠 Memory: Loaded %d learned item(s)", res.Count)}, nil
	})
	return hooks.EventSessionStart
}

// projectName returns name, or the detected name of the project directory
// when name is empty.
func (a *app) projectName(ctx context.Context, name string) string {
	if name != "" {
		return name
	}
	d, err := project.NewCache(a.projectDir, a.logger.Underlying()).Detect(a.projectDir, false)
	if err != nil {
		a.logger.Warn(ctx, "project detection failed", zap.Error(err))
		return ""
	}
	return d.Name
}

func (a *app) scanner(projectName string) *editlearn.Scanner {
	return editlearn.NewScanner(a.projectDir, a.cfg.Storage.Dir, a.store, a.logger.Underlying(),
		editlearn.WithProjectName(projectName),
		editlearn.WithMetrics(a.metrics),
	)
}

func isQuietMemoryErr(err error) bool {
	return errors.Is(err, memory.ErrNoData) || errors.Is(err, memory.ErrDisabled)
}
