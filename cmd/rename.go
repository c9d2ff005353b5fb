// cmd/rename.go

package main

import (
	"context"
	"fmt"

	"GridKV/pkg/grid"

	"github.com/urfave/cli/v2"
)

func renameFlags() *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "change the filename of a stored file",
		ArgsUsage: "STORE-URL SRC DST",
		Action:    rename,
		Flags:     storeFlags(),
	}
}

func rename(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 3 {
		return fmt.Errorf("STORE-URL, SRC and DST are needed")
	}
	s, err := createStore(c)
	if err != nil {
		return err
	}
	return grid.Rename(context.Background(), s, c.String("root"), c.Args().Get(1), c.Args().Get(2))
}
