package main

import (
	"os"

	"github.com/TheusHen/SANd/cmd/sand/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
