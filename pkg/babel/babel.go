// Package babel synthesizes the syntax-transform settings shared by the
// webpack and rollup resolvers.
package babel

import (
	"regexp"
	"strings"

	"github.com/arthur-debert/karmatic/pkg/jsvalue"
	"github.com/arthur-debert/karmatic/pkg/pkgresolve"
	"github.com/arthur-debert/karmatic/pkg/rules"
	"github.com/arthur-debert/karmatic/pkg/types"
)

// Package names of the transform pieces.
const (
	PresetEnv       = "@babel/preset-env"
	PluginJSX       = "@babel/plugin-transform-react-jsx"
	PluginIstanbul  = "babel-plugin-istanbul"
	Loader          = "babel-loader"
	RollupPlugin    = "@rollup/plugin-babel"
	RollupPluginOld = "rollup-plugin-babel"
)

var (
	legacyBrowserRe = regexp.MustCompile(`(?i)(\b|ms|microsoft)(ie|internet.explorer|edge)`)

	// SourcePattern selects the files the synthesized rule transforms.
	SourcePattern = rules.MustPattern(`\.jsx?$`, "")
	// VendorPattern keeps dependencies out of the transform.
	VendorPattern = rules.MustPattern(`node_modules`, "")
)

// Kind distinguishes presets from plugins for name normalisation.
type Kind int

const (
	KindPlugin Kind = iota
	KindPreset
)

// NeedsLegacyTarget reports whether the legacy browser target applies.
func NeedsLegacyTarget(o types.Options) bool {
	return o.Downlevel || legacyBrowserRe.MatchString(strings.Join(o.Browsers, ","))
}

// Targets returns the browserslist queries for o.
func Targets(o types.Options) []any {
	targets := []any{"last 2 Chrome versions", "last 2 Firefox versions"}
	if NeedsLegacyTarget(o) {
		targets = append(targets, "ie>=9")
	}
	return targets
}

// Config builds the transform options. Module references resolve to
// installed paths when finder locates them.
func Config(o types.Options, finder pkgresolve.Finder) map[string]any {
	presets := []any{
		[]any{
			resolvePath(finder, PresetEnv),
			map[string]any{
				"targets":     map[string]any{"browsers": Targets(o)},
				"corejs":      int64(3),
				"useBuiltIns": "usage",
				"modules":     false,
				"loose":       true,
			},
		},
	}
	plugins := []any{
		[]any{resolvePath(finder, PluginJSX), map[string]any{"pragma": o.EffectivePragma()}},
	}
	if o.Coverage {
		plugins = append(plugins, CoveragePlugin(finder))
	}
	return map[string]any{
		"presets": Dedupe(presets, KindPreset),
		"plugins": Dedupe(plugins, KindPlugin),
	}
}

// CoveragePlugin is the instrumentation plugin entry.
func CoveragePlugin(finder pkgresolve.Finder) any {
	return resolvePath(finder, PluginIstanbul)
}

// LoaderRule is the webpack rule that applies the transform.
func LoaderRule(o types.Options, finder pkgresolve.Finder) *rules.TransformRule {
	return rules.NewRule(SourcePattern, VendorPattern, resolvePath(finder, Loader), Config(o, finder))
}

func resolvePath(finder pkgresolve.Finder, name string) string {
	if finder == nil {
		return name
	}
	info, err := finder.Lookup(name)
	if err != nil {
		return name
	}
	return info.EntryPath()
}

// MergePlugins appends plugins to the options' plugin list, keeping the
// user's entries first and dropping duplicates.
func MergePlugins(opts map[string]any, plugins ...any) map[string]any {
	if opts == nil {
		opts = map[string]any{}
	}
	merged := append(append([]any{}, jsvalue.AsSlice(opts["plugins"])...), plugins...)
	opts["plugins"] = Dedupe(merged, KindPlugin)
	return opts
}

// Dedupe drops entries whose normalised name was seen earlier. Entries
// without a recognisable name are kept. Dedupe(Dedupe(x)) == Dedupe(x).
func Dedupe(entries []any, kind Kind) []any {
	seen := map[string]bool{}
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		name := EntryName(e, kind)
		if name != "" {
			if seen[name] {
				continue
			}
			seen[name] = true
		}
		out = append(out, e)
	}
	return out
}

// EntryName returns the canonical package name of a plugin or preset
// entry: a string, or a [name, options] pair.
func EntryName(entry any, kind Kind) string {
	var raw string
	switch t := entry.(type) {
	case string:
		raw = t
	case []any:
		if len(t) > 0 {
			return EntryName(t[0], kind)
		}
	case *jsvalue.Func:
		return ""
	case *jsvalue.Instance:
		return ""
	}
	if raw == "" {
		return ""
	}
	raw = strings.TrimPrefix(raw, "module:")
	name := rules.PackageName(raw)
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, ".") {
		return name
	}
	return normalizeName(name, kind)
}

func normalizeName(name string, kind Kind) string {
	prefix := "plugin"
	if kind == KindPreset {
		prefix = "preset"
	}
	if strings.HasPrefix(name, "@") {
		scope, rest, found := strings.Cut(name, "/")
		if !found {
			return name
		}
		if scope == "@babel" && !strings.HasPrefix(rest, prefix+"-") {
			return scope + "/" + prefix + "-" + rest
		}
		return name
	}
	if strings.HasPrefix(name, "babel-"+prefix+"-") {
		return name
	}
	return "babel-" + prefix + "-" + name
}
