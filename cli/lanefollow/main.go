// Package main is the lanefollow command itself.
package main

import (
	"log"
	"os"

	"go.viam.com/lanefollow/cli"
	// registers all components.
	_ "go.viam.com/lanefollow/components/register"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
