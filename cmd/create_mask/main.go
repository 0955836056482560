// create_mask writes a uint8 mask dataset evaluated from bit-field tests on
// datasets of one or more container files.
package main

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/go-sdsmask/internal/cli"
	"github.com/robert-malhotra/go-sdsmask/internal/errors"
)

func main() {
	if err := cli.NewCreateMaskApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(errors.ExitCode(err))
	}
}
