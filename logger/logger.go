package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	InfoLogger  *logrus.Logger
	WarnLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

// InitLoggers sets up the package-level loggers. Log files rotate via
// lumberjack; everything is mirrored to stdout so container logs stay useful.
func InitLoggers() {
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		// Fall back to stdout-only logging.
		logDir = ""
	}

	InfoLogger = newLogger(logDir, "info.log", logrus.InfoLevel)
	WarnLogger = newLogger(logDir, "warn.log", logrus.WarnLevel)
	ErrorLogger = newLogger(logDir, "error.log", logrus.ErrorLevel)
}

func newLogger(dir, file string, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if dir == "" {
		l.SetOutput(os.Stdout)
		return l
	}

	rotated := &lumberjack.Logger{
		Filename:   dir + "/" + file,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	l.SetOutput(io.MultiWriter(os.Stdout, rotated))
	return l
}
