// Package config loads process configuration for ambient-extractor.
//
// Values come from, in increasing precedence: built-in defaults, the file
// named by AMBIENT_CONFIG (YAML, JSON or TOML), and AMBIENT_* environment
// variables. A .env file in the working directory is loaded into the
// environment first when present.
//
// List values (allowlist.urls, allowlist.dirs) may be given as lists in the
// config file or as comma-separated environment variables. Schedules can only
// be configured in the file.
package config
