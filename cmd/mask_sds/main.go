// mask_sds copies datasets of a container file, replacing masked pixels with
// a fill value.
package main

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/go-sdsmask/internal/cli"
	"github.com/robert-malhotra/go-sdsmask/internal/errors"
)

func main() {
	if err := cli.NewMaskSDSApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(errors.ExitCode(err))
	}
}
