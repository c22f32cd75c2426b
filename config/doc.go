// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including server settings, redis connection details, cache TTLs, circuit
// breaker thresholds, and external dependency endpoints.
package config
