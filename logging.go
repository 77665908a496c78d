package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging configures the standard logrus logger. Output goes to stderr
// and, when logFile is set, to a rotating file. The returned closer, nil when
// there is no file, closes it.
func setupLogging(level, logFile string) (io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	if logFile == "" {
		logrus.SetOutput(os.Stderr)
		return nil, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator, nil
}
