// cmd/ls.go

package main

import (
	"context"
	"fmt"

	"GridKV/pkg/grid"

	"github.com/urfave/cli/v2"
)

func lsFlags() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "list all filenames under a root",
		ArgsUsage: "STORE-URL",
		Action:    ls,
		Flags:     storeFlags(),
	}
}

func ls(c *cli.Context) error {
	setLoggerLevel(c)
	s, err := createStore(c)
	if err != nil {
		return err
	}
	names, err := grid.List(context.Background(), s, c.String("root"))
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
