package logger

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultLogFile = "optionlab.log"

func Init() (*zap.Logger, error) {
	return InitWithLevel("info")
}

func InitWithLevel(logLevel string) (*zap.Logger, error) {
	return InitWithConfig(logLevel, DefaultLogFile)
}

// NewConfig returns the production zap config writing to stderr and, when
// logFilePath is set, to that file as well
func NewConfig(logLevel, logFilePath string) (*zap.Config, error) {
	conf := zap.NewProductionConfig()
	conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	conf.Sampling = nil
	if logLevel == "" {
		logLevel = "info"
	}
	// the old levelled logger knew "verbose" as the level below debug
	if logLevel == "verbose" {
		logLevel = "debug"
	}
	if err := conf.Level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, errors.Wrapf(err, "log level %q", logLevel)
	}
	if logFilePath != "" {
		conf.OutputPaths = append(conf.OutputPaths, logFilePath)
	}
	return &conf, nil
}

// InitWithConfig builds the logger and installs it as the global zap logger
// and the standard library log output
func InitWithConfig(logLevel, logFilePath string) (*zap.Logger, error) {
	conf, err := NewConfig(logLevel, logFilePath)
	if err != nil {
		return nil, err
	}
	logger, err := conf.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	zap.ReplaceGlobals(logger)
	zap.RedirectStdLog(logger)
	return logger, nil
}
