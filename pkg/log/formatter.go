package log

import "github.com/sirupsen/logrus"

// NewFormatter returns the text formatter used by the CLI.
func NewFormatter(disableColors bool) logrus.Formatter {
	return &logrus.TextFormatter{
		DisableColors:          disableColors,
		DisableLevelTruncation: true,
		FullTimestamp:          true,
		TimestampFormat:        "15:04:05.000",
	}
}
