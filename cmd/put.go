// cmd/put.go

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

func putFlags() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "write a local file (or stdin) into the store",
		ArgsUsage: "STORE-URL NAME [FILE]",
		Action:    put,
		Flags: append(storeFlags(),
			&cli.Int64Flag{
				Name:  "chunk-size",
				Value: 256,
				Usage: "size of chunk in KiB",
			},
			&cli.StringFlag{
				Name:  "content-type",
				Usage: "content type stored in the file record",
			},
			&cli.BoolFlag{
				Name:  "append",
				Usage: "append to the existing file instead of replacing it",
			},
		),
	}
}

func put(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 2 {
		return fmt.Errorf("STORE-URL and NAME are needed")
	}
	s, err := createStore(c)
	if err != nil {
		return err
	}
	name := c.Args().Get(1)

	var src io.Reader = os.Stdin
	var total int64 = -1
	if c.Args().Len() > 2 {
		in, err := os.Open(c.Args().Get(2))
		if err != nil {
			return err
		}
		defer in.Close()
		if fi, err := in.Stat(); err == nil {
			total = fi.Size()
		}
		src = in
	}

	mode := grid.ModeWrite
	if c.Bool("append") {
		mode = grid.ModeAppend
	}
	opts := &grid.Options{
		Root:        c.String("root"),
		ContentType: c.String("content-type"),
	}
	if mode == grid.ModeWrite {
		opts.ChunkSize = c.Int64("chunk-size") << 10
	}
	f, err := grid.Open(context.Background(), s, name, mode, opts)
	if err != nil {
		return err
	}

	progress, bar := utils.NewDynProgressBar("uploading "+name+": ", c.Bool("quiet"))
	if total >= 0 {
		bar.SetTotal(total, false)
	}
	if _, err = io.Copy(f, bar.ProxyReader(src)); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	bar.SetTotal(0, true)
	progress.Wait()
	logger.Infof("stored %s: %d bytes", name, f.Info().Length)
	return nil
}
