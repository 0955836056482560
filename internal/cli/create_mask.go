package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/robert-malhotra/go-sdsmask/internal/sdsio"
	"github.com/robert-malhotra/go-sdsmask/mask"
)

const (
	FlagOutput = "of"
	FlagMask   = "mask"
	FlagOn     = "on"
	FlagOff    = "off"
	FlagName   = "name"
)

// NewCreateMaskApp returns the create_mask application.
func NewCreateMaskApp() *cli.App {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     FlagOutput,
			Usage:    "output file",
			Required: true,
		},
		&cli.StringFlag{
			Name:     FlagMask,
			Usage:    "mask expression, e.g. file,QA,0-1==00,AND,*,land,0==1",
			Required: true,
		},
		&cli.IntFlag{
			Name:  FlagOn,
			Usage: "byte written where the expression holds",
		},
		&cli.IntFlag{
			Name:  FlagOff,
			Usage: "byte written where the expression does not hold",
		},
		&cli.StringFlag{
			Name:  FlagName,
			Usage: "name of the mask dataset",
		},
		appendFlag(),
	}

	return newApp("create_mask", "write a uint8 mask evaluated from bit-field tests", "", flags, createMaskAction)
}

func createMaskAction(ctx *cli.Context) error {
	cfg, logger, err := settings(ctx)
	if err != nil {
		return err
	}

	req := mask.CreateMaskRequest{
		Output:     ctx.String(FlagOutput),
		Expression: ctx.String(FlagMask),
		Dataset:    ctx.String(FlagName),
	}
	if ctx.IsSet(FlagOn) {
		on := ctx.Int(FlagOn)
		req.On = &on
	}
	if ctx.IsSet(FlagOff) {
		off := ctx.Int(FlagOff)
		req.Off = &off
	}

	return withContainer(ctx, logger, func(ctr *sdsio.Container) error {
		return mask.CreateMask(ctr, req, cfg, logger)
	})
}
