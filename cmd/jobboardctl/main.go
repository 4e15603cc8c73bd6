// Command jobboardctl is the operator CLI for a jobboard data directory.
package main

import (
	"os"

	"github.com/garnizeh/jobboard/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
