package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger      = logrus.New()
	loggerMutex sync.RWMutex
)

// Setup configures the process logger. Unknown levels fall back to info.
func Setup(level string, json bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	SetLogger(l)
	return l
}

// SetLogger replaces the process logger
func SetLogger(l *logrus.Logger) {
	loggerMutex.Lock()
	logger = l
	loggerMutex.Unlock()
}

// GetLogger returns the process logger
func GetLogger() *logrus.Logger {
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()
	return logger
}

// Module returns a log entry tagged with the module name
func Module(name string) *logrus.Entry {
	return GetLogger().WithField("module", name)
}
