package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var version = "0.1.0"

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	app := &cli.App{
		Name:    "storecheck",
		Usage:   "Assert the demo storefront's UI behavior from a real browser",
		Version: version,
		Commands: []*cli.Command{
			RunCommand(),
			ListCommand(),
			FixturesCommand(),
			WatchCommand(),
			HistoryCommand(),
			MigrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
