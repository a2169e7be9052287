// Package cmd is the base package for the pollvm executables.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version is the app's semantic version. Designed to be overwritten by make.
	Version string

	// Branch is the git branch used to build the App. Designed to be overwritten by make.
	Branch string

	// Commit is the git commit used to build the app. Designed to be overwritten by make.
	Commit string
)

// VersionCommand prints build information.
func VersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version",
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintf(c.OutOrStdout(), "%s+%s+%s\n", Version, Branch, Commit)
		},
	}
}
