package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
)

// Options controls where and how much the process logs.
type Options struct {
	Level string
	// File is the rotating log file; empty disables file output.
	File   string
	Stdout bool
	// Colors forces colored level names, for the interactive importer.
	Colors bool
}

// Setup initializes Logrus for the whole process.
func Setup(opts Options) error {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	var writers []io.Writer
	if opts.File != "" {
		// Lumberjack for file rotation
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		})
	}
	if opts.Stdout || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	logrus.SetOutput(io.MultiWriter(writers...))
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		ForceColors:     opts.Colors,
	})
	logrus.SetLevel(level)
	return nil
}
