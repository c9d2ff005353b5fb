// cmd/info.go

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"
)

func infoFlags() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "show the file record of a stored file",
		ArgsUsage: "STORE-URL NAME",
		Action:    info,
		Flags:     storeFlags(),
	}
}

func printJson(v interface{}) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatalf("json: %s", err)
	}
	fmt.Println(string(output))
}

func info(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 2 {
		return fmt.Errorf("STORE-URL and NAME are needed")
	}
	s, err := createStore(c)
	if err != nil {
		return err
	}
	fi, err := s.LookupFile(context.Background(), c.String("root"), c.Args().Get(1))
	if err != nil {
		return err
	}
	printJson(fi)
	return nil
}
