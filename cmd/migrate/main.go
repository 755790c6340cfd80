// migrate runs DB migrations from embedded SQL; use with go run ./cmd/migrate.
// Only needed for the Postgres backend; the bolt store manages its own file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"it-snapshot-inventory/internal/config"
	"it-snapshot-inventory/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; set it or run the server with the embedded bolt store")
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			// Already at target version; success.
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
