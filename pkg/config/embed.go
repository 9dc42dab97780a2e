package config

import (
	_ "embed"
	"errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// document is a koanf provider over bytes already in memory. It always
// needs a parser.
type document []byte

func (d document) ReadBytes() ([]byte, error) { return d, nil }

func (document) Read() (map[string]interface{}, error) {
	return nil, errors.New("config: document has no parsed form")
}
