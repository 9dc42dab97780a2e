package karmatic

import (
	"github.com/arthur-debert/karmatic/internal/version"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command. Without a subcommand
// it behaves like "run".
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	var verbosity int

	rootCmd := &cobra.Command{
		Use:     "karmatic [files...]",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgRunExample,
		Version: version.Version,
		Args:    cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Strs("args", args).Msg("Command started")
		},
		RunE:              runTests(nil),
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	addOptionFlags(rootCmd)
	rootCmd.Flags().BoolP("watch", "w", false, MsgFlagWatch)

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newDebugCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}
