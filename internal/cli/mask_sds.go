package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/robert-malhotra/go-sdsmask/internal/errors"
	"github.com/robert-malhotra/go-sdsmask/internal/sdsio"
	"github.com/robert-malhotra/go-sdsmask/mask"
)

const (
	FlagDatasets = "sds"
	FlagFill     = "fill"
	FlagMeta     = "meta"
)

// NewMaskSDSApp returns the mask_sds application.
func NewMaskSDSApp() *cli.App {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     FlagOutput,
			Usage:    "output file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  FlagDatasets,
			Usage: "comma separated dataset names or glob patterns; all maskable datasets when empty",
		},
		&cli.Int64Flag{
			Name:  FlagFill,
			Usage: "value written to masked pixels; derived from the dataset when unset",
		},
		&cli.StringFlag{
			Name:     FlagMask,
			Usage:    "mask expression, e.g. file,QA,0-1==00,AND,*,land,0==1",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  FlagMeta,
			Usage: "copy the file attributes of the input to the output",
		},
		appendFlag(),
	}

	return newApp("mask_sds", "replace masked pixels of datasets with a fill value", "<input-file>", flags, maskSDSAction)
}

func maskSDSAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.ErrorWithExitCode{
			Err:      errors.Errorf("expected exactly one input file, got %d", ctx.NArg()),
			ExitCode: 2,
		}
	}

	cfg, logger, err := settings(ctx)
	if err != nil {
		return err
	}

	req := mask.MaskSDSRequest{
		Input:      ctx.Args().First(),
		Output:     ctx.String(FlagOutput),
		Expression: ctx.String(FlagMask),
		CopyMeta:   ctx.Bool(FlagMeta),
	}
	if ctx.IsSet(FlagFill) {
		fill := ctx.Int64(FlagFill)
		req.Fill = &fill
	}

	return withContainer(ctx, logger, func(ctr *sdsio.Container) error {
		available, err := ctr.List(req.Input)
		if err != nil {
			return err
		}
		names, warnings, err := SelectDatasets(available, SplitList(ctx.String(FlagDatasets)))
		for _, w := range warnings {
			logger.Warn(w)
		}
		if err != nil {
			return err
		}
		req.Datasets = names
		logger.Debugf("selected datasets %v", names)

		return mask.MaskSDS(ctr, req, cfg, logger)
	})
}
