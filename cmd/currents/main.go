package main

import (
	"currents/cmd/handlers"
	"currents/internal/logger"
	"os"
)

func main() {
	logger.Init()
	if err := handlers.Execute(); err != nil {
		os.Exit(1)
	}
}
