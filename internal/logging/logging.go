// Package logging builds the logrus entries handed to the masking pipelines.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-sdsmask/internal/errors"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = logrus.InfoLevel

// New returns an entry writing text logs at level to out, tagged with the
// program name.
func New(program, level string, out io.Writer) (*logrus.Entry, error) {
	lvl := DefaultLevel
	if level = strings.TrimSpace(level); level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, errors.WithStackTrace(err)
		}
		lvl = parsed
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})

	return logger.WithField("prefix", program), nil
}

// Discard returns an entry that drops everything.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
