// Command migrate applies the verdant schema from the command line. Flags
// override the MIGRATE_* environment variables the service itself honors.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/verdant-labs/verdant/migrate"
)

func main() {
	driver := flag.String("driver", os.Getenv("MIGRATE_DRIVER"), "database driver (postgres or sqlite)")
	dsn := flag.String("dsn", os.Getenv("MIGRATE_DSN"), "database connection string")
	cmd := flag.String("cmd", "up", "goose command: up, down, status, version, up-to, down-to, redo, reset")
	target := flag.Int64("target", 0, "version for up-to/down-to")
	flag.Parse()

	if *driver == "" || *dsn == "" {
		fmt.Fprintln(os.Stderr, "migrate: -driver and -dsn are required (or MIGRATE_DRIVER/MIGRATE_DSN)")
		os.Exit(2)
	}

	err := migrate.Run(migrate.Options{
		Driver:  *driver,
		DSN:     *dsn,
		Command: *cmd,
		Target:  *target,
		Logger:  log.New(os.Stdout, "[migrate] ", log.LstdFlags),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}
