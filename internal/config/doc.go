// Package config loads, normalizes, and validates the standwatch TOML
// configuration.
//
// Configuration is resolved from an explicit path, then
// ~/.config/standwatch/config.toml, then ./standwatch.toml. Loaded values are
// merged over repository defaults, path fields are expanded to absolute
// locations, and the result is validated before any component sees it.
package config
