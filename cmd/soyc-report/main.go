package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/example/soyc-report/internal/cli"
)

func main() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		log.NewWithOptions(os.Stderr, log.Options{Prefix: "soyc"}).Error(err)
		os.Exit(1)
	}
}
