package main

import (
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"

	"lawdesk/internal/core/config"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(config.Read).Execute(); err != nil {
		os.Exit(1)
	}
}
