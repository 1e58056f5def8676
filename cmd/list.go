package cmd

import (
	"context"
	"fmt"

	"github.com/aiomayo/portwatch/internal/query"
	"github.com/aiomayo/portwatch/internal/ui"
	"github.com/spf13/cobra"
)

type listFlags struct {
	protocol string
	search   string
	sort     string
	verbose  bool
}

func newListCmd(o *rootOptions) *cobra.Command {
	f := &listFlags{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List open sockets and their owning processes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.verbose = f.verbose || o.verbose
			return runList(cmd.Context(), o, f)
		},
	}

	cmd.Flags().StringVarP(&f.protocol, "protocol", "P", "all", "protocol filter (all|tcp|udp)")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "case-insensitive search over port, address, state, pid and process name")
	cmd.Flags().StringVar(&f.sort, "sort", "port", "sort key (none|port|process|state)")
	cmd.Flags().BoolVar(&f.verbose, "path", false, "show executable paths")
	_ = cmd.RegisterFlagCompletionFunc("protocol", cobra.FixedCompletions([]string{"all", "tcp", "udp"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("sort", cobra.FixedCompletions([]string{"none", "port", "process", "state"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func runList(ctx context.Context, o *rootOptions, f *listFlags) error {
	proto, err := query.ParseProtocol(f.protocol)
	if err != nil {
		return &exitError{code: 2, message: err.Error()}
	}
	key, err := query.ParseSortKey(f.sort)
	if err != nil {
		return &exitError{code: 2, message: err.Error()}
	}

	a := newApp(ctx, o.cfg)
	defer a.Close()

	records, err := a.service.List(ctx, query.Filter{Protocol: proto, Text: f.search}, key)
	if err != nil {
		return &exitError{code: 1, message: fmt.Sprintf("collect sockets: %v", err)}
	}
	if len(records) == 0 {
		if !o.quiet {
			fmt.Println("no matching sockets")
		}
		return nil
	}

	fmt.Println(ui.RenderTable(records, f.verbose))
	if !o.quiet {
		stats, err := a.service.Stats(ctx)
		if err == nil {
			fmt.Println(ui.RenderCounts(stats.Counts))
		}
	}
	return nil
}

func newStatsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print socket counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := newApp(cmd.Context(), o.cfg)
			defer a.Close()

			stats, err := a.service.Stats(cmd.Context())
			if err != nil {
				return &exitError{code: 1, message: fmt.Sprintf("collect sockets: %v", err)}
			}
			fmt.Println(ui.RenderCounts(stats.Counts))
			return nil
		},
	}
}
