// Package config loads, normalizes, and validates imagecurator configuration.
//
// Values come from the defaults in this package, then a TOML file
// (--config, ~/.config/imagecurator/config.toml or ./imagecurator.toml),
// then IMAGECURATOR_* environment variables, which may themselves be seeded
// from a .env file. Paths are tilde-expanded and made absolute.
package config
