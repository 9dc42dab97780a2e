package karmatic

import (
	"fmt"

	"github.com/arthur-debert/karmatic/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			v, commit, date := version.Resolved()
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, v, commit, date)
		},
	}
}
