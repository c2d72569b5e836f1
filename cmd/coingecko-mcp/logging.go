package main

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type logOptions struct {
	Level  string
	Format string
	// Output is "stderr" or a file path. stdout is reserved for the stdio
	// transport.
	Output string
	// Tee mirrors a file output to stderr.
	Tee bool
}

func newLogger(opts logOptions, stderr io.Writer) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, nil, fmt.Errorf("invalid log format %q (want json or console)", opts.Format)
	}

	console := zapcore.Lock(zapcore.AddSync(stderr))
	cleanup := func() {}

	var sink zapcore.WriteSyncer
	switch output := strings.TrimSpace(opts.Output); strings.ToLower(output) {
	case "", "stderr":
		sink = console
	case "stdout":
		return nil, nil, fmt.Errorf("log output stdout would corrupt the stdio transport")
	default:
		file, closeFile, err := zap.Open(output)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log output %s: %w", output, err)
		}
		cleanup = closeFile
		sink = file
		if opts.Tee {
			sink = zapcore.NewMultiWriteSyncer(file, console)
		}
	}

	logger := zap.New(zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level)))
	return logger, func() {
		_ = logger.Sync()
		cleanup()
	}, nil
}
