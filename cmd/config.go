package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/aiomayo/portwatch/internal/config"
	"github.com/aiomayo/portwatch/internal/ui"
	"github.com/bytedance/sonic"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage portwatch configuration",
		Long:  "Manage portwatch configuration.\n\nEvery key can also be overridden with a PORTWATCH_<KEY> environment variable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print config file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), config.Path())
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Reset config to defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.Reset(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "config reset to defaults")
				return nil
			},
		},
		newConfigShowCmd(),
		newConfigEditCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigAliasCmd(),
		newConfigProtectCmd(),
	)

	return cmd
}

// updateConfig loads the config file, applies fn and writes the result back.
// Nothing is written when fn fails.
func updateConfig(fn func(cfg *config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return config.Save(cfg)
}

func newConfigShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, showValues(cfg))
			}
			_, err = io.WriteString(out, formatShow(cfg))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print settings as JSON")
	return cmd
}

func formatShow(cfg *config.Config) string {
	var b strings.Builder
	for i, g := range config.Groups() {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "# %s\n", g.Title())

		for _, f := range g.Fields {
			val, _ := config.GetValue(cfg, f.Key)
			formatted := config.DisplayValue(&f, val)
			if f.Kind == config.StringMap {
				b.WriteString(formatted + "\n")
				continue
			}
			fmt.Fprintf(&b, "%-20s = %-24s  # %s\n", f.DisplayName(), formatted, f.Desc)
		}
	}
	return b.String()
}

// showValues flattens the config into key/value pairs with durations as text
// and secrets masked.
func showValues(cfg *config.Config) map[string]any {
	values := make(map[string]any, len(config.Schema))
	for _, f := range config.Schema {
		val, _ := config.GetValue(cfg, f.Key)
		if d, ok := val.(time.Duration); ok {
			val = d.String()
		}
		values[f.Key] = config.Masked(&f, val)
	}
	return values
}

func writeJSON(w io.Writer, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the config file in an editor",
		Long:  "Open the config file in default_editor, falling back to $VISUAL, $EDITOR or an interactive choice.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			editor := resolveEditor(cfg.DefaultEditor, os.Getenv)
			if editor == "" {
				if editor, err = pickEditor(); err != nil {
					return err
				}
				cfg.DefaultEditor = editor
				if err := config.Save(cfg); err != nil {
					return err
				}
			}

			name, extra := splitEditor(editor)
			c := exec.CommandContext(cmd.Context(), name, append(extra, config.Path())...)
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			if _, err := config.Load(); err != nil {
				log.Warn("edited config is invalid, defaults will be used", "err", err)
			}
			return nil
		},
	}
}

func resolveEditor(configured string, getenv func(string) string) string {
	for _, candidate := range []string{configured, getenv("VISUAL"), getenv("EDITOR")} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// splitEditor separates an editor command such as "code --wait" into the
// program and its arguments.
func splitEditor(editor string) (string, []string) {
	fields := strings.Fields(editor)
	return fields[0], fields[1:]
}

func pickEditor() (string, error) {
	var options []huh.Option[string]
	var tried []string
	for _, opt := range config.LookupField("default_editor").Options {
		if opt == "" {
			continue
		}
		tried = append(tried, opt)
		if _, err := exec.LookPath(opt); err == nil {
			options = append(options, huh.NewOption(opt, opt))
		}
	}
	if len(options) == 0 {
		return "", fmt.Errorf("no supported editor found in PATH (tried %s)", strings.Join(tried, ", "))
	}
	return ui.Choose("Choose default config editor", options)
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get <key>...",
		Short:             "Print one or more config values",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeConfigKeys(true),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := make([]*config.Field, len(args))
			for i, key := range args {
				if fields[i] = config.LookupField(key); fields[i] == nil {
					return fmt.Errorf("unknown config key: %s", key)
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range fields {
				val, err := config.GetValue(cfg, f.Key)
				if err != nil {
					return err
				}
				if len(fields) == 1 {
					fmt.Fprintln(out, config.FormatValue(f, val))
					continue
				}
				fmt.Fprintf(out, "%s = %s\n", f.Key, config.FormatValue(f, val))
			}
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Set a config value",
		Long:              "Set a config value. List values such as redis_addrs take a comma separated list.",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeConfigKeys(false),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, raw := args[0], args[1]
			f := config.LookupField(key)
			if f == nil {
				return fmt.Errorf("unknown config key: %s", key)
			}
			if !settable(f) {
				return fmt.Errorf("%q is managed with `portwatch config %s`", key, managedBy(f))
			}

			val, err := config.ParseValue(f, raw)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			return updateConfig(func(cfg *config.Config) error {
				if err := config.SetValue(cfg, key, val); err != nil {
					return err
				}
				return cfg.Validate()
			})
		},
	}
}

func settable(f *config.Field) bool {
	return f.Kind != config.StringMap && f.Key != "protected"
}

func managedBy(f *config.Field) string {
	if f.Key == "protected" {
		return "protect"
	}
	return "alias"
}

func newConfigAliasCmd() *cobra.Command {
	var del bool

	cmd := &cobra.Command{
		Use:   "alias [name] [target]",
		Short: "List, add or remove kill target aliases",
		Example: "  portwatch config alias web 3000\n" +
			"  portwatch config alias --delete web",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			switch {
			case len(args) == 0:
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, config.FormatValue(config.LookupField("aliases"), cfg.Aliases))
				return nil

			case del:
				name := args[0]
				err := updateConfig(func(cfg *config.Config) error {
					if !cfg.DeleteAlias(name) {
						return fmt.Errorf("alias %q not found", name)
					}
					return nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "alias %q removed\n", name)
				return nil

			case len(args) == 1:
				return fmt.Errorf("missing target for alias %q", args[0])
			}

			name, target := args[0], args[1]
			if err := updateConfig(func(cfg *config.Config) error { return cfg.SetAlias(name, target) }); err != nil {
				return err
			}
			fmt.Fprintf(out, "alias %s = %q\n", strings.TrimSpace(name), strings.TrimSpace(target))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&del, "delete", "d", false, "remove an alias")
	return cmd
}

func newConfigProtectCmd() *cobra.Command {
	var del bool

	cmd := &cobra.Command{
		Use:   "protect [name]",
		Short: "List, add or remove protected processes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				names := slices.Clone(cfg.Protected)
				slices.SortFunc(names, func(a, b string) int {
					return strings.Compare(strings.ToLower(a), strings.ToLower(b))
				})
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			name := args[0]
			var changed bool
			err := updateConfig(func(cfg *config.Config) error {
				if del {
					if changed = cfg.Unprotect(name); !changed {
						return fmt.Errorf("process %q not in protected list", name)
					}
					return nil
				}
				changed = cfg.Protect(name)
				return nil
			})
			if err != nil {
				return err
			}

			switch {
			case del:
				fmt.Fprintf(out, "removed %q from protected list\n", name)
			case changed:
				fmt.Fprintf(out, "added %q to protected list\n", name)
			default:
				fmt.Fprintf(out, "%q is already protected\n", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&del, "delete", "d", false, "remove from protected list")
	return cmd
}

func completeConfigKeys(all bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 && !all {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var keys []string
		for _, f := range config.Schema {
			if all || settable(&f) {
				keys = append(keys, f.Key+"\t"+f.Desc)
			}
		}
		return keys, cobra.ShellCompDirectiveNoFileComp
	}
}
