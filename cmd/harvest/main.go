// Package main provides the harvest command-line tool.
package main

import (
	"os"

	"go.dedis.ch/harvest"
	"go.dedis.ch/harvest/cli"
)

func main() {
	err := cli.NewApp().Run(os.Args)
	if err != nil {
		harvest.Logger.Fatal().Err(err).Msg("command failed")
	}
}
