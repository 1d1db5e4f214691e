package pkg

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields aliases logrus fields so callers don't import logrus directly.
type Fields = logrus.Fields

// NewLogger builds the shared JSON logger. Log level comes from LOG_LEVEL,
// defaulting to info.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
