package karmatic

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Zero-configuration browser test runner"
	MsgRunShort        = "Run the test suite once"
	MsgWatchShort      = "Run the test suite and re-run on changes"
	MsgDebugShort      = "Run tests in a visible browser, in watch mode"
	MsgConfigShort     = "Print the generated runner configuration"
	MsgInitShort       = "Write a starter .karmatic.toml"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgVersionFormat    = "karmatic %s (commit %s, built %s)\n"
	MsgInitCreated      = "Created [path]{{path}}[/path]\n"
	MsgWatchingTargets  = "Watching %d configuration files for changes"
	MsgProjectFileEmpty = "(none)"

	// Error messages
	MsgErrWorkingDir    = "failed to determine working directory: %w"
	MsgErrUnknownFormat = "unknown format %q (expected js, json, yaml or table)"
	MsgErrRenderExplain = "failed to render explanation: %w"
	MsgErrEncodeConfig  = "failed to encode configuration: %w"
	MsgErrUnknownShell  = "unknown shell %q (expected bash, zsh, fish or powershell)"

	// Flag descriptions
	MsgFlagVerbose       = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig        = "Read options from this file instead of .karmatic.toml"
	MsgFlagFiles         = "Test file patterns (comma separated)"
	MsgFlagBrowsers      = "Browsers to launch: chrome, firefox, sauce-<browser>-<version>-<platform> (comma separated)"
	MsgFlagHeadless      = "Run browsers headless"
	MsgFlagCoverage      = "Instrument sources and report coverage"
	MsgFlagDownlevel     = "Transpile test sources for older browsers"
	MsgFlagChromeDataDir = "Chrome user data directory, relative to the project"
	MsgFlagPragma        = "JSX pragma used when no babel configuration is found"
	MsgFlagBundler       = "Bundler family: auto, webpack or rollup"
	MsgFlagWebpackConfig = "Path to the webpack configuration"
	MsgFlagRollupConfig  = "Path to the rollup configuration"
	MsgFlagWatch         = "Keep running and re-run on changes"
	MsgFlagFormat        = "Output format: js, json, yaml or table"
	MsgFlagExplain       = "Describe the generated configuration"
	MsgFlagForce         = "Overwrite an existing configuration file"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/run-long.txt
	msgRunLongRaw string
	MsgRunLong    = strings.TrimSpace(msgRunLongRaw)

	//go:embed msgs/run-example.txt
	msgRunExampleRaw string
	MsgRunExample    = strings.TrimRight(msgRunExampleRaw, "\n")

	//go:embed msgs/watch-long.txt
	msgWatchLongRaw string
	MsgWatchLong    = strings.TrimSpace(msgWatchLongRaw)

	//go:embed msgs/debug-long.txt
	msgDebugLongRaw string
	MsgDebugLong    = strings.TrimSpace(msgDebugLongRaw)

	//go:embed msgs/config-long.txt
	msgConfigLongRaw string
	MsgConfigLong    = strings.TrimSpace(msgConfigLongRaw)

	//go:embed msgs/config-example.txt
	msgConfigExampleRaw string
	MsgConfigExample    = strings.TrimRight(msgConfigExampleRaw, "\n")

	//go:embed msgs/init-long.txt
	msgInitLongRaw string
	MsgInitLong    = strings.TrimSpace(msgInitLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/explain.md
	MsgExplainTemplate string

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw) + "\n"
)
