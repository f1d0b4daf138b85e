package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
)

// DynamicLogger is a zap.Logger whose output levels can be changed after
// construction. The site server starts at INFO so startup is always visible,
// then drops to the configured level.
type DynamicLogger struct {
	*zap.Logger
	consoleLevel *zap.AtomicLevel
	fileLevel    *zap.AtomicLevel
	configured   configtypes.LogConfig
}

// Option tweaks logger construction
type Option func(*options)

type options struct {
	console zapcore.WriteSyncer
	startup bool
}

// WithConsoleWriter sends console output somewhere other than stdout
func WithConsoleWriter(w zapcore.WriteSyncer) Option {
	return func(o *options) { o.console = w }
}

// WithStartupOverride raises WARN/ERROR configurations to INFO until
// SwitchToConfiguredLevel is called.
func WithStartupOverride() Option {
	return func(o *options) { o.startup = true }
}

// NewLogger builds a logger from the log section of the config
func NewLogger(config configtypes.LogConfig, opts ...Option) (*DynamicLogger, error) {
	o := options{console: zapcore.Lock(os.Stdout)}
	for _, opt := range opts {
		opt(&o)
	}

	effective := config
	if o.startup && parseLogLevel(config.Level) > zap.InfoLevel {
		effective = startupConfig(config)
	}

	global := parseLogLevel(effective.Level)
	dl := &DynamicLogger{configured: config}
	var cores []zapcore.Core

	if effective.Console.Enabled {
		level := zap.NewAtomicLevelAt(resolveLogLevel(effective.Console.Level, global))
		dl.consoleLevel = &level
		cores = append(cores, zapcore.NewCore(createEncoder(effective.Console.Format), o.console, level))
	}

	if effective.File.Enabled {
		if effective.File.Path == "" {
			return nil, fmt.Errorf("file.path must be specified when file logging is enabled")
		}
		level := zap.NewAtomicLevelAt(resolveLogLevel(effective.File.Level, global))
		dl.fileLevel = &level
		cores = append(cores, zapcore.NewCore(createEncoder(effective.File.Format), createFileWriter(effective.File.Path, effective.File.Rotation), level))
	}

	switch len(cores) {
	case 0:
		return nil, fmt.Errorf("at least one log output (console or file) must be enabled")
	case 1:
		dl.Logger = zap.New(cores[0])
	default:
		dl.Logger = zap.New(zapcore.NewTee(cores...))
	}

	return dl, nil
}

// startupConfig pins outputs that follow the global level to INFO
func startupConfig(config configtypes.LogConfig) configtypes.LogConfig {
	c := config
	c.Level = configtypes.LogLevelInfo
	if c.Console.Enabled && c.Console.Level == "" {
		c.Console.Level = configtypes.LogLevelInfo
	}
	if c.File.Enabled && c.File.Level == "" {
		c.File.Level = configtypes.LogLevelInfo
	}
	return c
}

// SwitchToConfiguredLevel applies the levels from the config file
func (dl *DynamicLogger) SwitchToConfiguredLevel() {
	global := parseLogLevel(dl.configured.Level)

	dl.Info("Switching logger to configured level", zap.String("level", dl.configured.Level))

	if dl.consoleLevel != nil {
		dl.consoleLevel.SetLevel(resolveLogLevel(dl.configured.Console.Level, global))
	}
	if dl.fileLevel != nil {
		dl.fileLevel.SetLevel(resolveLogLevel(dl.configured.File.Level, global))
	}
}

// EnsureInfoLevelForShutdown makes the shutdown sequence visible regardless
// of the configured level.
func (dl *DynamicLogger) EnsureInfoLevelForShutdown() {
	changed := false
	for _, level := range []*zap.AtomicLevel{dl.consoleLevel, dl.fileLevel} {
		if level != nil && level.Level() > zap.InfoLevel {
			level.SetLevel(zap.InfoLevel)
			changed = true
		}
	}

	if changed {
		dl.Info("Switched to INFO level for shutdown visibility")
	}
}

func parseLogLevel(level string) zapcore.Level {
	switch level {
	case configtypes.LogLevelDebug:
		return zap.DebugLevel
	case configtypes.LogLevelWarn:
		return zap.WarnLevel
	case configtypes.LogLevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// resolveLogLevel prefers the per-output level over the global one
func resolveLogLevel(outputLevel string, globalLevel zapcore.Level) zapcore.Level {
	if outputLevel != "" {
		return parseLogLevel(outputLevel)
	}
	return globalLevel
}

func createEncoder(format string) zapcore.Encoder {
	if format == configtypes.LogFormatJSON {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if format == configtypes.LogFormatText {
		// no color codes in files
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func createFileWriter(path string, rotation configtypes.RotationConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotation.MaxSize,
		MaxAge:     rotation.MaxAge,
		MaxBackups: rotation.MaxBackups,
		Compress:   rotation.Compress,
	})
}

// NewDefaultLogger logs debug and above to the console, for use before the
// config file has been read.
func NewDefaultLogger() (*DynamicLogger, error) {
	return NewLogger(configtypes.LogConfig{
		Level: configtypes.LogLevelDebug,
		Console: configtypes.ConsoleLogConfig{
			Enabled: true,
			Format:  configtypes.LogFormatConsole,
		},
	})
}
