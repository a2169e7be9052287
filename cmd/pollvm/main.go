// pollvm runs a node with the poll program and talks to it.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spacemeshos/go-pollvm/cmd"
	"github.com/spacemeshos/go-pollvm/node"
)

var (
	version string
	commit  string
	branch  string
)

func main() { // run the app
	cmd.Version = version
	cmd.Commit = commit
	cmd.Branch = branch
	root := &cobra.Command{
		Use:   "pollvm",
		Short: "simple on-chain voting",
	}
	root.AddCommand(node.GetCommand(), cmd.VersionCommand())
	root.AddCommand(cmd.ClientCommands()...)
	if err := root.Execute(); err != nil {
		// Do not print error as cmd.SilenceErrors is false
		// and the error was already printed
		os.Exit(1)
	}
}
