package main

import (
	"invtracker/cmd/invtracker/cmd"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // loads .env if present
	cmd.Execute()
}
