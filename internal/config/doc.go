// Package config loads YAML configuration for the live feed tools, expands
// ${VAR} environment references, applies defaults, and validates values.
package config
