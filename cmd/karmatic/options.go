package karmatic

import (
	"github.com/arthur-debert/karmatic/pkg/config"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagKeys maps option flags to their configuration keys. Only flags that
// were set on the command line reach the configuration.
var flagKeys = map[string]string{
	"files":           "files",
	"browsers":        "browsers",
	"headless":        "headless",
	"coverage":        "coverage",
	"downlevel":       "downlevel",
	"chrome-data-dir": "chrome_data_dir",
	"pragma":          "pragma",
	"bundler":         "bundler",
	"webpack-config":  "webpack_config",
	"rollup-config":   "rollup_config",
	"watch":           "watch",
}

// addOptionFlags registers the run option flags as persistent flags of cmd.
// Defaults shown here are informational; the configuration layers decide.
func addOptionFlags(cmd *cobra.Command) {
	defaults := types.DefaultOptions()
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", MsgFlagConfig)
	flags.StringSlice("files", nil, MsgFlagFiles)
	flags.StringSlice("browsers", nil, MsgFlagBrowsers)
	flags.Bool("headless", defaults.Headless, MsgFlagHeadless)
	flags.Bool("coverage", defaults.Coverage, MsgFlagCoverage)
	flags.Bool("downlevel", defaults.Downlevel, MsgFlagDownlevel)
	flags.String("chrome-data-dir", "", MsgFlagChromeDataDir)
	flags.String("pragma", defaults.Pragma, MsgFlagPragma)
	flags.String("bundler", defaults.Bundler, MsgFlagBundler)
	flags.String("webpack-config", "", MsgFlagWebpackConfig)
	flags.String("rollup-config", "", MsgFlagRollupConfig)

	_ = cmd.RegisterFlagCompletionFunc("bundler", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{types.BundlerAuto, types.BundlerWebpack, types.BundlerRollup}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("browsers", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"chrome", "chrome-headless", "firefox", "sauce-"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// changedFlags returns the option flags set on the command line, keyed by
// configuration key.
func changedFlags(flags *pflag.FlagSet) map[string]interface{} {
	out := map[string]interface{}{}
	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		switch f.Value.Type() {
		case "stringSlice":
			v, _ := flags.GetStringSlice(f.Name)
			out[key] = v
		case "bool":
			v, _ := flags.GetBool(f.Name)
			out[key] = v
		default:
			out[key] = f.Value.String()
		}
	})
	return out
}

// optionRequest builds the configuration request for a command. Overrides
// sit below explicit flags; positional arguments extend --files.
func optionRequest(cmd *cobra.Command, dir string, args []string, overrides map[string]interface{}) config.Request {
	flags := map[string]interface{}{}
	for k, v := range overrides {
		flags[k] = v
	}
	for k, v := range changedFlags(cmd.Flags()) {
		flags[k] = v
	}
	if len(args) > 0 {
		var files []string
		if fromFlag, ok := flags["files"].([]string); ok {
			files = append(files, fromFlag...)
		}
		flags["files"] = append(files, args...)
	}

	file, _ := cmd.Flags().GetString("config")
	return config.Request{Dir: dir, File: file, Flags: flags, Environ: environ}
}

// loadOptions resolves the options for a command invocation.
func loadOptions(fs afero.Fs, cmd *cobra.Command, dir string, args []string, overrides map[string]interface{}) (*config.Result, error) {
	return config.Load(fs, optionRequest(cmd, dir, args, overrides))
}
