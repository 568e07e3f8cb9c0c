// Package database connects to the scratch registry backend.
//
// The registry records every tar archive written to scratch storage so that
// files left behind by crashed or interrupted downloads can be found and
// removed by a later cleanup pass.
//
// # Supported Backends
//
//   - SQLite: default, suitable for a single server
//   - PostgreSQL: for deployments that already run one, using a pgx pool
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "/var/cache/dirtar/registry.db",
//	    Tables: dirtar.Tables{Archives: "dirtar_archives"},
//	}
//
//	db, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	repo := db.GetRepo()
//
// Open runs the schema migrations and validates the result. Use Connect for
// a bare connection.
package database
