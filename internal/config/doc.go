// Package config loads and validates the YAML configuration for the
// ingestor and its companion commands. ${VAR} references in the file are
// expanded from the environment before parsing, so credentials stay out
// of checked-in configs.
package config
