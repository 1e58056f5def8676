package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aiomayo/portwatch/internal/config"
	"github.com/aiomayo/portwatch/internal/detect"
	"github.com/aiomayo/portwatch/internal/finder"
	"github.com/aiomayo/portwatch/internal/killer"
	"github.com/aiomayo/portwatch/internal/ui"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type killFlags struct {
	port     uint32
	pid      int32
	all      bool
	yes      bool
	dryRun   bool
	interact bool
	timeout  time.Duration
}

func (f *killFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint32VarP(&f.port, "port", "p", 0, "kill the owner of a local port")
	cmd.Flags().Int32Var(&f.pid, "pid", 0, "kill by PID")
	cmd.Flags().BoolVarP(&f.all, "all", "a", false, "kill all matching processes")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "skip confirmation")
	cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "d", false, "show what would be killed")
	cmd.Flags().BoolVarP(&f.interact, "interactive", "i", false, "interactive process selection")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, fmt.Sprintf("wait after SIGTERM before SIGKILL, at most %s (default from config)", config.MaxWait))
}

func newKillCmd(o *rootOptions) *cobra.Command {
	f := &killFlags{}

	cmd := &cobra.Command{
		Use:   "kill [target]",
		Short: "Terminate the processes owning a port, PID, host:port, name or glob",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && f.port == 0 && f.pid == 0 {
				return cmd.Help()
			}
			return runKill(cmd.Context(), o, f, args)
		},
	}
	f.register(cmd)
	return cmd
}

func runKill(ctx context.Context, o *rootOptions, f *killFlags, args []string) error {
	cfg := o.cfg
	if err := checkTimeout(f.timeout); err != nil {
		return &exitError{code: 1, message: err.Error()}
	}
	if f.timeout > 0 {
		cfg.GracefulTimeout = f.timeout
	}

	q := resolveQuery(f, args, cfg)
	if q == nil {
		return &exitError{code: 1, message: "no target provided, pass a port, PID, host:port, name or glob"}
	}
	if q.Type == detect.TypePID && q.PID <= 0 {
		return &exitError{code: 1, message: fmt.Sprintf("invalid pid %d", q.PID)}
	}

	a := newApp(ctx, cfg)
	defer a.Close()

	snap, err := a.service.Snapshot(ctx)
	if err != nil {
		return &exitError{code: 1, message: fmt.Sprintf("collect sockets: %v", err)}
	}

	targets, err := finder.New().Find(snap, *q)
	if err != nil {
		return &exitError{code: 1, message: fmt.Sprintf("find error: %v", err)}
	}
	log.Debug("resolved targets", "query", q.String(), "matches", len(targets))

	if len(targets) == 0 {
		log.Info("no matching processes found", "query", q.String())
		return nil
	}

	targets = filterProtected(targets, cfg)
	if len(targets) == 0 {
		return &exitError{code: 1, message: "all matching processes are protected"}
	}

	if f.interact || (len(targets) > 1 && !f.all && !f.yes && !f.dryRun) {
		targets, err = ui.PickTargets(targets)
		if err != nil {
			return &exitError{code: 130, message: "selection cancelled"}
		}
		if len(targets) == 0 {
			return nil
		}
	} else if len(targets) > 1 && !f.all && !f.dryRun {
		printTargets(targets)
		return &exitError{code: 1, message: fmt.Sprintf("found %d processes, use -a to kill all or -i for interactive selection", len(targets))}
	}

	if !f.yes && !f.dryRun {
		confirmed, err := ui.ConfirmKill(targets)
		if err != nil || !confirmed {
			return &exitError{code: 130, message: "cancelled"}
		}
	}

	kt := make([]killer.Target, len(targets))
	for i, t := range targets {
		kt[i] = killer.Target{PID: t.PID, Name: t.Name}
	}
	results := a.killer.Execute(ctx, kt, f.dryRun)

	hasFailure := false
	for _, r := range results {
		if !o.quiet {
			fmt.Println(killer.FormatResult(r))
		}
		if !r.DryRun && r.Outcome != killer.Terminated && r.Outcome != killer.NotFound {
			hasFailure = true
		}
	}

	if hasFailure {
		return &exitError{code: 1, message: "some processes could not be killed"}
	}
	return nil
}

func resolveQuery(f *killFlags, args []string, cfg *config.Config) *detect.Query {
	if f.port > 0 {
		q := detect.Query{Type: detect.TypePort, Port: f.port, Raw: strconv.FormatUint(uint64(f.port), 10)}
		return &q
	}
	if f.pid != 0 {
		q := detect.Query{Type: detect.TypePID, PID: f.pid, Raw: strconv.FormatInt(int64(f.pid), 10)}
		return &q
	}
	if len(args) > 0 {
		q := detect.Classify(cfg.ResolveAlias(args[0]))
		return &q
	}
	return nil
}

func filterProtected(targets []finder.Target, cfg *config.Config) []finder.Target {
	var result []finder.Target
	for _, t := range targets {
		if cfg.IsProtected(t.Name) {
			log.Warn("skipping protected process", "name", t.Name, "pid", t.PID)
			continue
		}
		result = append(result, t)
	}
	return result
}

func printTargets(targets []finder.Target) {
	for _, t := range targets {
		fmt.Println("  " + ui.TargetLabel(t))
	}
}

func checkTimeout(d time.Duration) error {
	switch {
	case d < 0:
		return fmt.Errorf("--timeout must not be negative, got %s", d)
	case d > config.MaxWait:
		return fmt.Errorf("--timeout must not exceed %s, got %s", config.MaxWait, d)
	}
	return nil
}
