// Package main is the entry point for the xodr2dae converter.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/xodr2dae/internal/config"
	"github.com/Faultbox/xodr2dae/internal/convert"
	"github.com/Faultbox/xodr2dae/internal/logger"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] input.xodr output.dae\n\nFlags:\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	config.ParseFlags()

	args := flag.Args()
	if len(args) != 2 {
		usage()
		os.Exit(2)
	}
	input, output := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	ok, warnings, err := convert.Run(convert.FromConfig(cfg, input, output))
	if err != nil {
		logger.Error("conversion failed", zap.Error(err))
		os.Exit(1)
	}
	for _, w := range warnings {
		logger.Warn(w)
	}
	if !ok {
		logger.Error("no meshes generated, nothing written")
		os.Exit(1)
	}

	logger.Info("conversion finished",
		zap.String("output", output),
		zap.Int("warnings", len(warnings)))
}
