// Diagnostic tool listing the contents of SDS container files
package main

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/go-sdsmask/internal/cli"
	"github.com/robert-malhotra/go-sdsmask/internal/errors"
)

func main() {
	if err := cli.NewSDSInfoApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(errors.ExitCode(err))
	}
}
