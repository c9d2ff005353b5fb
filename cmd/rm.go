// cmd/rm.go

package main

import (
	"context"
	"fmt"

	"GridKV/pkg/grid"

	"github.com/urfave/cli/v2"
)

func rmFlags() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "remove files with their chunks",
		ArgsUsage: "STORE-URL NAME...",
		Action:    rm,
		Flags:     storeFlags(),
	}
}

func rm(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 2 {
		return fmt.Errorf("STORE-URL and NAME are needed")
	}
	s, err := createStore(c)
	if err != nil {
		return err
	}
	return grid.Remove(context.Background(), s, c.String("root"), c.Args().Slice()[1:]...)
}
