// Package config loads and validates the application configuration from
// built-in defaults, an optional YAML file, and AUDIT_-prefixed environment
// variables, in that order of precedence.
package config
