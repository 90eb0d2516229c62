package main

import (
	"github.com/joho/godotenv"

	"secindex/cmd"
)

func main() {
	// Load a .env file if one is present; real env vars still win.
	_ = godotenv.Load()

	cmd.Execute()
}
