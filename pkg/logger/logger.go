package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logger at the given level; falls back to info when the
// level string is not recognized.
func New(logLevel string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
