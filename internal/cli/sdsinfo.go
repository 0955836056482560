package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/robert-malhotra/go-sdsmask/internal/catalog"
	"github.com/robert-malhotra/go-sdsmask/internal/errors"
	"github.com/robert-malhotra/go-sdsmask/internal/sdsio"
	"github.com/robert-malhotra/go-sdsmask/sds"
)

// NewSDSInfoApp returns the sdsinfo application.
func NewSDSInfoApp() *cli.App {
	return newApp("sdsinfo", "list the datasets and attributes of container files", "<file>...", nil, sdsInfoAction)
}

func sdsInfoAction(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.ErrorWithExitCode{Err: errors.Errorf("no input files"), ExitCode: 2}
	}

	cfg, logger, err := settings(ctx)
	if err != nil {
		return err
	}

	var errs *errors.MultiError
	for _, path := range ctx.Args().Slice() {
		if err := Describe(ctx.App.Writer, path, cfg.AggregationAttribute); err != nil {
			logger.WithError(err).Errorf("reading %s", path)
			errs = errs.Append(err)
		}
	}
	return errs.ErrorOrNil()
}

// Describe writes a listing of the file at path to w.
func Describe(w io.Writer, path, aggregationAttribute string) error {
	f, err := sds.Open(path)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	defer f.Close()

	fmt.Fprintf(w, "File %q:\n", path)
	fmt.Fprintf(w, "  Datasets: %d\n", len(f.Datasets()))
	if _, ok := f.Attr(aggregationAttribute); ok {
		fmt.Fprintf(w, "  Aggregated: yes\n")
	}
	writeAttrs(w, "  ", f.Attrs(), f.Attr)

	return sds.Walk(f, func(ds *sds.Dataset) error {
		d := sdsio.Describe(path, ds)
		fmt.Fprintf(w, "  Dataset %q:\n", d.Name)
		fmt.Fprintf(w, "    Kind: %s\n", d.Kind)
		fmt.Fprintf(w, "    Shape: %v\n", d.Dims)
		if !Maskable(d) {
			fmt.Fprintf(w, "    [not maskable]\n")
		}
		writeAttrs(w, "    ", ds.Attrs(), ds.Attr)
		return nil
	})
}

func writeAttrs(w io.Writer, indent string, names []string, get func(string) (catalog.Attribute, bool)) {
	if len(names) == 0 {
		return
	}
	parts := make([]string, 0, len(names))
	for _, name := range names {
		a, _ := get(name)
		parts = append(parts, fmt.Sprintf("%s=%q", name, a.String()))
	}
	fmt.Fprintf(w, "%sAttrs: %s\n", indent, strings.Join(parts, " "))
}
