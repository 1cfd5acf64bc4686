package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/openwallet-labs/defi-agent/internal/app"
)

func main() {
	// Signer keys and backend overrides can live in a local .env file.
	_ = godotenv.Load()

	runner := app.NewRunner()
	os.Exit(runner.Run(os.Args[1:]))
}
