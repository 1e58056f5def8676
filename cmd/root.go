package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/aiomayo/portwatch/internal/config"
	"github.com/aiomayo/portwatch/internal/logging"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string { return e.message }

type rootOptions struct {
	verbose    bool
	quiet      bool
	completion string

	cfg       *config.Config
	logCloser io.Closer
}

func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	o := &rootOptions{}
	rootCmd := newRootCmd(o)
	err := rootCmd.ExecuteContext(ctx)
	if o.logCloser != nil {
		_ = o.logCloser.Close()
	}

	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			log.Error(ee.message)
			return ee.code
		}
		if ctx.Err() != nil {
			return 130
		}
		log.Error("unexpected error", "err", err)
		return 1
	}
	return 0
}

func newRootCmd(o *rootOptions) *cobra.Command {
	kf := &killFlags{}

	cmd := &cobra.Command{
		Use:     "portwatch [target]",
		Short:   "Inspect open ports and terminate the processes that own them",
		Long:    fmt.Sprintf("portwatch lists the TCP and UDP sockets on this machine with their owning processes.\nPass a port, PID, host:port, process name or glob to kill its owner.\n\nConfig: %s", config.Path()),
		Version: build.String(),
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.completion != "" {
				return runCompletion(cmd, o.completion)
			}
			if len(args) == 0 && kf.port == 0 && kf.pid == 0 {
				return runList(cmd.Context(), o, &listFlags{verbose: o.verbose})
			}
			return runKill(cmd.Context(), o, kf, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(
		newListCmd(o),
		newKillCmd(o),
		newWatchCmd(o),
		newServeCmd(o),
		newStatsCmd(o),
		newConfigCmd(),
		newVersionCmd(),
	)

	kf.register(cmd)
	cmd.Flags().StringVarP(&o.completion, "completion", "c", "", "generate completion script ("+strings.Join(shellNames(), "|")+")")
	_ = cmd.RegisterFlagCompletionFunc("completion", completeShells)

	cmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVarP(&o.quiet, "quiet", "q", false, "suppress output")

	return cmd
}

// setup loads the config and configures logging before any command runs.
func (o *rootOptions) setup() error {
	cfg, loadErr := config.Load()
	o.cfg = cfg

	closer, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Warn("log setup failed", "err", err)
	}
	o.logCloser = closer

	if cfg.DefaultVerbose {
		o.verbose = true
	}
	if o.verbose {
		log.SetLevel(log.DebugLevel)
	}
	if o.quiet {
		log.SetLevel(log.FatalLevel)
	}

	if loadErr != nil {
		log.Warn("config load failed, using defaults", "err", loadErr)
	}
	return nil
}
