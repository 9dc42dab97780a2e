package types

import (
	"github.com/arthur-debert/karmatic/pkg/jsvalue"
	"github.com/arthur-debert/karmatic/pkg/rules"
)

// BundlerFamily names a bundler integration.
type BundlerFamily string

const (
	FamilyWebpack BundlerFamily = "webpack"
	FamilyRollup  BundlerFamily = "rollup"
)

// BundleStage is the bundling step a resolver attaches to a RunnerConfig.
type BundleStage interface {
	Family() BundlerFamily
	// Preprocessor is the runner preprocessor name for the stage.
	Preprocessor() string
	// Plugin is the runner plugin package that provides the preprocessor.
	Plugin() string
	// UserConfig is the bundler config file the stage was derived from, if any.
	UserConfig() string
	jsvalue.Marshaler
}

// WebpackStage is the generated webpack configuration.
type WebpackStage struct {
	Rules          []*rules.TransformRule
	ResolveModules []any
	ResolveAliases map[string]any
	// Resolve holds the remaining user resolve fields.
	Resolve       map[string]any
	ResolveLoader map[string]any
	Plugins       []any
	Mode          string
	// LegacyLoaders emits rules under module.loaders for webpack < 4.
	LegacyLoaders  bool
	Devtool        string
	Target         string
	Node           any
	Middleware     map[string]any
	UserConfigPath string
}

func (s *WebpackStage) Family() BundlerFamily { return FamilyWebpack }
func (s *WebpackStage) Preprocessor() string  { return "webpack" }
func (s *WebpackStage) Plugin() string        { return "karma-webpack" }
func (s *WebpackStage) UserConfig() string    { return s.UserConfigPath }

// JSValue renders the webpack configuration object.
func (s *WebpackStage) JSValue() any {
	ruleValues := make([]any, len(s.Rules))
	for i, r := range s.Rules {
		ruleValues[i] = r.JSValue()
	}
	rulesKey := "rules"
	if s.LegacyLoaders {
		rulesKey = "loaders"
	}

	resolve := jsvalue.Clone(s.Resolve)
	resolveMap, _ := resolve.(map[string]any)
	if resolveMap == nil {
		resolveMap = map[string]any{}
	}
	resolveMap["modules"] = s.ResolveModules
	resolveMap["alias"] = s.ResolveAliases

	out := map[string]any{
		"module":      map[string]any{rulesKey: ruleValues},
		"resolve":     resolveMap,
		"plugins":     s.Plugins,
		"devtool":     s.Devtool,
		"target":      s.Target,
		"performance": map[string]any{"hints": false},
	}
	if s.Plugins == nil {
		out["plugins"] = []any{}
	}
	if s.ResolveLoader != nil {
		out["resolveLoader"] = s.ResolveLoader
	}
	if s.Node != nil {
		out["node"] = s.Node
	}
	if s.Mode != "" && !s.LegacyLoaders {
		out["mode"] = s.Mode
	}
	return out
}

// RollupStage is the generated rollup configuration.
type RollupStage struct {
	Plugins []any
	Output  map[string]any
	// Extra holds the remaining user config fields.
	Extra          map[string]any
	UserConfigPath string
}

func (s *RollupStage) Family() BundlerFamily { return FamilyRollup }
func (s *RollupStage) Preprocessor() string  { return "rollup" }
func (s *RollupStage) Plugin() string        { return "karma-rollup-preprocessor" }
func (s *RollupStage) UserConfig() string    { return s.UserConfigPath }

// JSValue renders the rollup options object.
func (s *RollupStage) JSValue() any {
	out := map[string]any{}
	if extra, ok := jsvalue.Clone(s.Extra).(map[string]any); ok {
		out = extra
	}
	out["plugins"] = s.Plugins
	if s.Plugins == nil {
		out["plugins"] = []any{}
	}
	out["output"] = s.Output
	return out
}
