package karmatic

import (
	"fmt"

	"github.com/arthur-debert/karmatic/pkg/scaffold"
	"github.com/arthur-debert/karmatic/pkg/style"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "init",
		Short:   MsgInitShort,
		Long:    MsgInitLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			// Current settings, including flags, seed the starter file.
			res, err := loadOptions(a.fs, cmd, a.cwd, nil, nil)
			if err != nil {
				return err
			}
			opts := scaffold.Detect(a.composer.Finder(), res.Options)

			path, err := scaffold.Init(cmd.Context(), a.cwd, opts, force)
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, style.RenderTemplate(MsgInitCreated, map[string]string{"path": relativeTo(a.cwd, path)}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, MsgFlagForce)
	return cmd
}
