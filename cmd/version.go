package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Dirty   bool   `json:"dirty,omitempty"`
	Go      string `json:"go"`
}

var build = versionInfo{Version: "dev", Commit: "none", Date: "unknown", Go: runtime.Version()}

// SetVersionInfo records the values stamped in at link time. Empty values are
// taken from the module and VCS data the go command embeds in the binary.
func SetVersionInfo(version, commit, date string) {
	info, _ := debug.ReadBuildInfo()
	build = newVersionInfo(version, commit, date, info)
}

func newVersionInfo(version, commit, date string, info *debug.BuildInfo) versionInfo {
	v := versionInfo{Version: version, Commit: commit, Date: date, Go: runtime.Version()}
	if info != nil {
		if v.Version == "" && info.Main.Version != "(devel)" {
			v.Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if v.Commit == "" {
					v.Commit = s.Value[:min(len(s.Value), 12)]
				}
			case "vcs.time":
				if v.Date == "" {
					v.Date = s.Value
				}
			case "vcs.modified":
				v.Dirty = s.Value == "true"
			}
		}
		if info.GoVersion != "" {
			v.Go = info.GoVersion
		}
	}

	if v.Version == "" {
		v.Version = "dev"
	}
	if v.Commit == "" {
		v.Commit = "none"
	}
	if v.Date == "" {
		v.Date = "unknown"
	}
	return v
}

func (v versionInfo) String() string {
	if v.Commit == "none" {
		return v.Version
	}
	commit := v.Commit
	if v.Dirty {
		commit += " (modified)"
	}
	return fmt.Sprintf("%s\n  commit: %s\n  built:  %s\n  go:     %s", v.Version, commit, v.Date, v.Go)
}

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), build)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "portwatch %s\n", build)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print build information as JSON")
	return cmd
}
