// Command stakeday is a daily accountability tracker with a money stake.
package main

import (
	"os"

	"github.com/stakeday/stakeday/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
