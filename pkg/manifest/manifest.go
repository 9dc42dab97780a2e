// Package manifest reads the project's package.json.
package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/spf13/afero"
)

// FileName is the manifest file looked up in the project directory.
const FileName = "package.json"

// Script is a named package.json script, in declaration order.
type Script struct {
	Name    string
	Command string
}

// Manifest is the part of package.json the composer reads.
type Manifest struct {
	Name    string
	Version string
	Scripts []Script
	// Dir is the directory holding package.json.
	Dir string
	// Present is false when no package.json was found.
	Present bool
}

type rawManifest struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Scripts json.RawMessage `json:"scripts"`
}

// Load reads dir/package.json. A missing file yields an empty manifest.
func Load(fs afero.Fs, dir string) (*Manifest, error) {
	logger := logging.GetLogger("manifest")
	path := filepath.Join(dir, FileName)

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("path", path).Msg("No package.json found")
			return &Manifest{Dir: dir}, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "reading %s", path)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "parsing %s", path)
	}
	m.Dir = dir
	logger.Debug().
		Str("name", m.Name).
		Int("scripts", len(m.Scripts)).
		Msg("Loaded package.json")
	return m, nil
}

// Parse decodes package.json content, keeping scripts in declaration order.
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	scripts, err := orderedScripts(raw.Scripts)
	if err != nil {
		return nil, err
	}
	return &Manifest{
		Name:    raw.Name,
		Version: raw.Version,
		Scripts: scripts,
		Present: true,
	}, nil
}

func orderedScripts(data json.RawMessage) ([]Script, error) {
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil
	}

	var scripts []Script
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if cmd, ok := value.(string); ok {
			scripts = append(scripts, Script{Name: key, Command: cmd})
		}
	}
	return scripts, nil
}

// Script returns the named script's command.
func (m *Manifest) Script(name string) (string, bool) {
	for _, s := range m.Scripts {
		if s.Name == name {
			return s.Command, true
		}
	}
	return "", false
}
