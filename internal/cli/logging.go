package cli

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a text logger writing to w at the named level.
func NewLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	return log, nil
}
