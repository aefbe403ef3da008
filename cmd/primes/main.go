package main

import (
	"log/slog"
	"os"
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running app", "error", err)
		os.Exit(1)
	}
}
