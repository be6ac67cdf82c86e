// Command quench runs quality checks and ratchets metrics for a codebase.
package main

import (
	"os"

	"github.com/quench-dev/quench/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
