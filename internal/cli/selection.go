package cli

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/robert-malhotra/go-sdsmask/internal/errors"
	"github.com/robert-malhotra/go-sdsmask/mask"
)

// SplitList splits a comma separated list, leaving commas inside glob
// alternations such as {a,b} alone. Empty entries are dropped.
func SplitList(list string) []string {
	var (
		out   []string
		depth int
		start int
	)
	flush := func(end int) {
		if item := strings.TrimSpace(list[start:end]); item != "" {
			out = append(out, item)
		}
		start = end + 1
	}
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush(i)
			}
		}
	}
	flush(len(list))
	return out
}

// Maskable reports whether a dataset can be filtered by mask_sds.
func Maskable(d *mask.Descriptor) bool {
	return d.Kind.Maskable() && d.Rank >= 2 && d.Rank <= 4
}

// SelectDatasets returns the names in available matching patterns, in the
// order they appear in available. With no patterns every maskable dataset is
// selected. A literal name that matches nothing is an error; a glob that
// matches nothing is only reported through the returned warnings.
func SelectDatasets(available []*mask.Descriptor, patterns []string) ([]string, []string, error) {
	if len(patterns) == 0 {
		var names []string
		for _, d := range available {
			if Maskable(d) {
				names = append(names, d.Name)
			}
		}
		if len(names) == 0 {
			return nil, nil, errors.Errorf("no maskable datasets found")
		}
		return names, nil, nil
	}

	matchers := make([]glob.Glob, len(patterns))
	for i, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, nil, errors.WithStackTraceAndPrefix(err, "invalid dataset pattern %q", p)
		}
		matchers[i] = g
	}

	var (
		names    []string
		warnings []string
		errs     *errors.MultiError
	)
	matched := make([]bool, len(patterns))
	for _, d := range available {
		hit, explicit := false, false
		for i, g := range matchers {
			if g.Match(d.Name) {
				matched[i] = true
				hit = true
				explicit = explicit || isLiteral(patterns[i])
			}
		}
		switch {
		case !hit:
		case explicit || Maskable(d):
			names = append(names, d.Name)
		default:
			warnings = append(warnings, "skipping "+d.Name+": not maskable")
		}
	}

	for i, p := range patterns {
		if matched[i] {
			continue
		}
		if isLiteral(p) {
			errs = errs.Append(errors.Errorf("dataset %s not found", p))
		} else {
			warnings = append(warnings, "pattern "+p+" matched no datasets")
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, warnings, err
	}
	if len(names) == 0 {
		return nil, warnings, errors.Errorf("no datasets selected")
	}
	return names, warnings, nil
}

func isLiteral(pattern string) bool {
	return !strings.ContainsAny(pattern, "*?[{\\")
}
