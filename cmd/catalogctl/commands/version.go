package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionInfo = struct {
	Version string
	Commit  string
}{
	Version: "dev",
	Commit:  "none",
}

// SetVersion вызывается из main до Execute.
func SetVersion(version, commit string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "catalogctl %s (%s)\n", versionInfo.Version, versionInfo.Commit)
		},
	}
}
