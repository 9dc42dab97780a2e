// Package config loads karmatic options from layered sources with koanf:
// embedded defaults, the project config file, KARMATIC_* environment
// variables and finally command-line flags.
package config
