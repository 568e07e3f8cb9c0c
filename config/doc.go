// Package config provides configuration loading and validation for dirtar.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (DIRTAR_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = config.WithContext(ctx, cfg)
//
// # Environment Variables
//
// All config keys map to environment variables with DIRTAR_ prefix:
//   - server.port → DIRTAR_SERVER_PORT
//   - server.root → DIRTAR_SERVER_ROOT
//   - archive.scratch_dir → DIRTAR_ARCHIVE_SCRATCH_DIR
//
// Durations accept Go duration strings such as "90s" or "1h".
package config
