package cmd

import (
	"time"

	"github.com/aiomayo/portwatch/internal/ui"
	"github.com/spf13/cobra"
)

func newWatchCmd(o *rootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Interactive live view of open sockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				interval = o.cfg.RefreshInterval
			}
			a := newApp(cmd.Context(), o.cfg)
			defer a.Close()
			return ui.Watch(cmd.Context(), a.service, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (default from config)")
	return cmd
}
