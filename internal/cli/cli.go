// Package cli builds the command line applications shipped in cmd/.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/robert-malhotra/go-sdsmask/internal/config"
	"github.com/robert-malhotra/go-sdsmask/internal/errors"
	"github.com/robert-malhotra/go-sdsmask/internal/logging"
	"github.com/robert-malhotra/go-sdsmask/internal/sdsio"
)

const (
	FlagConfig   = "config"
	FlagLogLevel = "log-level"
	FlagAppend   = "append"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  FlagConfig,
			Usage: "YAML file overriding the default tunables",
		},
		&cli.StringFlag{
			Name:  FlagLogLevel,
			Usage: "log level: trace, debug, info, warn, error",
		},
	}
}

// settings loads the configuration and builds the logger for one run.
// The -log-level flag wins over the configured level.
func settings(ctx *cli.Context) (config.Config, *logrus.Entry, error) {
	cfg := config.Default()
	if path := ctx.String(FlagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, nil, err
		}
		cfg = loaded
	}

	level := cfg.LogLevel
	if ctx.IsSet(FlagLogLevel) {
		level = ctx.String(FlagLogLevel)
	}

	logger, err := logging.New(ctx.App.Name, level, ctx.App.ErrWriter)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func appendFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  FlagAppend,
		Usage: "add datasets to an existing output file instead of replacing it",
	}
}

// withContainer runs fn against a fresh container and closes every file it
// opened, keeping the first error. With -append set, existing output files
// are extended rather than truncated.
func withContainer(ctx *cli.Context, logger *logrus.Entry, fn func(*sdsio.Container) error) error {
	ctr := sdsio.New(logger)
	if ctx.Bool(FlagAppend) {
		ctr.AppendOutputs()
	}
	err := fn(ctr)
	if cerr := ctr.CloseAll(); cerr != nil {
		if err == nil {
			return cerr
		}
		logger.WithError(cerr).Warn("closing files")
	}
	return err
}

func newApp(name, usage, argsUsage string, flags []cli.Flag, action cli.ActionFunc) *cli.App {
	return &cli.App{
		Name:            name,
		Usage:           usage,
		ArgsUsage:       argsUsage,
		Flags:           append(flags, commonFlags()...),
		Action:          errors.WithPanicHandling(action),
		HideHelpCommand: true,
	}
}
