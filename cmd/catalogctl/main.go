package main

import (
	"fmt"
	"os"

	"github.com/DRSN-tech/catalog-recommender/cmd/catalogctl/commands"
)

// заполняется через -ldflags при сборке
var (
	version = "dev"
	commit  = "none"
)

func main() {
	commands.SetVersion(version, commit)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
