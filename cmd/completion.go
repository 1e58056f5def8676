package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type shell struct {
	name    string
	aliases []string
	gen     func(root *cobra.Command, w io.Writer) error
}

var shells = []shell{
	{name: "bash", gen: func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) }},
	{name: "zsh", gen: (*cobra.Command).GenZshCompletion},
	{name: "fish", gen: func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) }},
	{name: "powershell", aliases: []string{"pwsh"}, gen: (*cobra.Command).GenPowerShellCompletionWithDesc},
}

func shellNames() []string {
	names := make([]string, len(shells))
	for i, s := range shells {
		names[i] = s.name
	}
	return names
}

func findShell(name string) (shell, bool) {
	name = strings.ToLower(name)
	for _, s := range shells {
		if s.name == name {
			return s, true
		}
		for _, a := range s.aliases {
			if a == name {
				return s, true
			}
		}
	}
	return shell{}, false
}

func runCompletion(cmd *cobra.Command, name string) error {
	s, ok := findShell(name)
	if !ok {
		return fmt.Errorf("invalid shell %q: must be one of: %s", name, strings.Join(shellNames(), ", "))
	}
	return s.gen(cmd.Root(), cmd.OutOrStdout())
}

func completeShells(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return shellNames(), cobra.ShellCompDirectiveNoFileComp
}
