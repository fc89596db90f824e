package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar      *zap.SugaredLogger
	loggerOnce sync.Once
	debugMode  bool
)

// Init configures the global logger. Calling it more than once has no effect;
// packages that log before Init get the production configuration.
func Init(debug bool) {
	debugMode = debug
	base()
}

func base() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		var cfg zap.Config
		if debugMode {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			cfg = zap.NewProductionConfig()
		}
		cfg.OutputPaths = []string{"stderr"}

		logger, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			panic("failed to create logger: " + err.Error())
		}
		sugar = logger.Sugar()
	})
	return sugar
}

func Debug(msg string, kv ...any) {
	base().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	base().Infow(msg, kv...)
}

// Error logs msg with the error prepended to the key-value list.
func Error(msg string, err error, kv ...any) {
	extended := append([]any{"err", err}, kv...)
	base().Errorw(msg, extended...)
}

// Sync flushes buffered log entries. Intended for use on shutdown.
func Sync() {
	_ = base().Sync()
}
