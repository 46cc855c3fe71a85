// Command minisql is a small relational database shell over CSV tables.
package main

import (
	"os"

	"github.com/vegasq/minisql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
