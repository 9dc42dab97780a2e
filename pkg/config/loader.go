package config

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/filesystem"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"
)

// EnvPrefix marks environment variables read as options.
const EnvPrefix = "KARMATIC_"

// ProjectFiles are looked up in the project root; the first one present is
// loaded.
var ProjectFiles = []string{".karmatic.toml", "karmatic.toml", ".karmatic.yaml", ".karmatic.yml"}

// Layer names, in load order.
const (
	LayerDefaults = "defaults"
	LayerProject  = "project"
	LayerFile     = "file"
	LayerEnv      = "env"
	LayerFlags    = "flags"
)

// Request describes where options come from.
type Request struct {
	// Dir is the project root searched for ProjectFiles.
	Dir string
	// File is an explicit config file read from disk instead of the
	// project file.
	File string
	// Flags holds command-line values that were explicitly set.
	Flags map[string]interface{}
	// Environ replaces the process environment, as KEY=VALUE pairs.
	Environ []string
}

// Result is the loaded options with the provenance of every key.
type Result struct {
	Options types.Options
	// ProjectFile is the config file that was loaded, if any.
	ProjectFile string

	origins map[string]string
}

// Origin returns the layer that last set key.
func (r *Result) Origin(key string) string {
	return r.origins[key]
}

// Keys returns every known option key, sorted.
func (r *Result) Keys() []string {
	keys := make([]string, 0, len(r.origins))
	for k := range r.origins {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load merges all layers and decodes them into options. A malformed
// layer fails with ErrConfigInvalid.
func Load(fs afero.Fs, req Request) (*Result, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")
	res := &Result{origins: map[string]string{}}

	merge := func(layer string, provider koanf.Provider, parser koanf.Parser) error {
		lk := koanf.New(".")
		if err := lk.Load(provider, parser); err != nil {
			return errors.Wrapf(err, errors.ErrConfigInvalid, "loading %s configuration", layer)
		}
		for _, key := range lk.Keys() {
			res.origins[key] = layer
		}
		logger.Debug().Str("layer", layer).Strs("keys", lk.Keys()).Msg("Loaded configuration layer")
		return k.Merge(lk)
	}

	// 1. Embedded defaults
	if err := merge(LayerDefaults, document(defaultConfig), toml.Parser()); err != nil {
		return nil, err
	}

	// 2. Project file, or the explicit file
	if req.File != "" {
		parser, err := parserFor(req.File)
		if err != nil {
			return nil, err
		}
		if err := merge(LayerFile, file.Provider(req.File), parser); err != nil {
			return nil, err
		}
		res.ProjectFile = req.File
	} else if path, data, ok, err := findProjectFile(fs, req.Dir); err != nil {
		return nil, err
	} else if ok {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := merge(LayerProject, document(data), parser); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "in %s", path).
				WithDetail("file", path)
		}
		res.ProjectFile = path
	}

	// 3. Environment
	if err := merge(LayerEnv, envProvider(req.Environ), nil); err != nil {
		return nil, err
	}

	// 4. Explicit flags
	if len(req.Flags) > 0 {
		if err := merge(LayerFlags, confmap.Provider(req.Flags, "."), nil); err != nil {
			return nil, err
		}
	}

	opts, err := decode(k)
	if err != nil {
		return nil, err
	}
	res.Options = opts
	return res, nil
}

func envProvider(environ []string) koanf.Provider {
	transform := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if environ == nil {
		return env.Provider(EnvPrefix, ".", transform)
	}
	values := map[string]interface{}{}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(key, EnvPrefix) {
			values[transform(key)] = value
		}
	}
	return confmap.Provider(values, ".")
}

func findProjectFile(fs afero.Fs, dir string) (string, []byte, bool, error) {
	if dir == "" {
		return "", nil, false, nil
	}
	for _, name := range ProjectFiles {
		path := filepath.Join(dir, name)
		data, ok, err := filesystem.ReadFileIfExists(fs, path)
		if err != nil {
			return "", nil, false, errors.Wrapf(err, errors.ErrFileAccess, "reading %s", path)
		}
		if ok {
			return path, data, true, nil
		}
	}
	return "", nil, false, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	}
	return nil, errors.Newf(errors.ErrConfigInvalid, "unsupported config format %q", filepath.Ext(path)).
		WithDetail("file", path)
}

func decode(k *koanf.Koanf) (types.Options, error) {
	var opts types.Options
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &opts,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
				trimSliceHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &opts, conf); err != nil {
		return opts, errors.Wrap(err, errors.ErrConfigInvalid, "decoding options")
	}

	switch opts.Bundler {
	case "", types.BundlerAuto, types.BundlerWebpack, types.BundlerRollup:
	default:
		return opts, errors.Newf(errors.ErrConfigInvalid, "unknown bundler %q", opts.Bundler).
			WithDetail("allowed", []string{types.BundlerAuto, types.BundlerWebpack, types.BundlerRollup})
	}
	if opts.Bundler == "" {
		opts.Bundler = types.BundlerAuto
	}
	return opts, nil
}
