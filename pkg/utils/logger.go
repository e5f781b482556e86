package utils

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions selects where and how much a command logs.
type LogOptions struct {
	Dir   string
	File  string
	App   string
	Debug bool
	// Level overrides the Debug-derived level when set.
	Level *zapcore.Level
	// Console defaults to stdout.
	Console io.Writer
}

func (o LogOptions) level() zapcore.Level {
	if o.Level != nil {
		return *o.Level
	}
	if o.Debug {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

// InitLogger tees log output to the console and a rotating file under opts.Dir.
func InitLogger(opts LogOptions) (*zap.Logger, error) {
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, err
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	if opts.Debug {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	// the file always gets JSON so it stays machine readable in debug mode
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	consoleEncoder := fileEncoder
	if opts.Debug {
		consoleEncoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	level := opts.level()
	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder, zapcore.AddSync(console), level)}
	if opts.File != "" {
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, opts.File),
			MaxSize:    10, // MB
			MaxBackups: 7,
			MaxAge:     28, // days
			Compress:   true,
		}), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	if opts.App != "" {
		logger = logger.With(zap.String("app", opts.App))
	}
	return logger, nil
}
