package main

import (
	"os"

	"github.com/AlexZinkM/launchpad-bot/internal/app"
)

func main() {
	runner := app.NewRunner()
	os.Exit(runner.Run(os.Args[1:]))
}
