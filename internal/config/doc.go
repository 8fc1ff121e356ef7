// Package config loads framesieve settings from built-in defaults, an
// optional YAML file and FRAMESIEVE_* environment variables. Command-line
// flags are applied on top by the command layer.
package config
