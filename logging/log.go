// Package logging sets up the structured logger shared by every
// subcommand.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// LevelFlag adapts a logrus.Level to pflag.Value so it can be bound
// directly to a --verbosity flag.
type LevelFlag struct {
	Level logrus.Level
}

var _ pflag.Value = (*LevelFlag)(nil)

func (f *LevelFlag) Type() string { return "loglevel" }

func (f *LevelFlag) Set(str string) error {
	lvl, err := logrus.ParseLevel(strings.ToLower(str))
	if err != nil {
		return err
	}
	f.Level = lvl
	return nil
}

func (f *LevelFlag) String() string { return f.Level.String() }

// New builds a text-formatted logger at lvl, writing to out.
func New(out io.Writer, lvl logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}
