// Package main is the entry point for the tileserv vector tile server.
package main

import (
	"os"

	"github.com/mapgrid/tileserv/cmd/tileserv/app"
	"github.com/mapgrid/tileserv/internal/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
