// cmd/get.go

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"GridKV/pkg/grid"
	"GridKV/pkg/utils"

	"github.com/urfave/cli/v2"
)

func getFlags() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "read a stored file to a local file (or stdout)",
		ArgsUsage: "STORE-URL NAME [FILE]",
		Action:    get,
		Flags:     storeFlags(),
	}
}

func get(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 2 {
		return fmt.Errorf("STORE-URL and NAME are needed")
	}
	s, err := createStore(c)
	if err != nil {
		return err
	}
	name := c.Args().Get(1)

	f, err := grid.Open(context.Background(), s, name, grid.ModeRead,
		&grid.Options{Root: c.String("root")})
	if err != nil {
		return err
	}
	defer f.Close()

	var dst io.Writer = os.Stdout
	quiet := c.Bool("quiet") || c.Args().Len() <= 2
	if c.Args().Len() > 2 {
		out, err := os.Create(c.Args().Get(2))
		if err != nil {
			return err
		}
		defer out.Close()
		dst = out
	}

	progress, bar := utils.NewDynProgressBar("downloading "+name+": ", quiet)
	bar.SetTotal(f.Info().Length, false)
	if _, err = io.Copy(dst, bar.ProxyReader(f)); err != nil {
		return err
	}
	bar.SetTotal(0, true)
	progress.Wait()
	return nil
}
