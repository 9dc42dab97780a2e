package karmatic

import (
	"github.com/arthur-debert/karmatic/pkg/config"
	"github.com/spf13/cobra"
)

var (
	watchOverrides = map[string]interface{}{"watch": true}
	debugOverrides = map[string]interface{}{"watch": true, "headless": false, "coverage": false}
)

// runTests returns a RunE that loads options, applies overrides below the
// explicit flags, and runs the suite.
func runTests(overrides map[string]interface{}) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		load := func() (*config.Result, error) {
			return loadOptions(a.fs, cmd, a.cwd, args, overrides)
		}
		res, err := load()
		if err != nil {
			return err
		}
		return a.run(cmd.Context(), res, load)
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run [files...]",
		Short:   MsgRunShort,
		Long:    MsgRunLong,
		Example: MsgRunExample,
		GroupID: "core",
		RunE:    runTests(nil),
	}
	cmd.Flags().BoolP("watch", "w", false, MsgFlagWatch)
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "watch [files...]",
		Short:   MsgWatchShort,
		Long:    MsgWatchLong,
		GroupID: "core",
		RunE:    runTests(watchOverrides),
	}
}

func newDebugCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "debug [files...]",
		Short:   MsgDebugShort,
		Long:    MsgDebugLong,
		GroupID: "core",
		RunE:    runTests(debugOverrides),
	}
}
