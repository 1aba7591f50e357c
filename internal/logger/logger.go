package logger

import (
	"landing-bot/internal/config"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const permissions = 0o644

// New собирает zap-логгер с цветными уровнями; sink: stdout, stderr или путь к файлу.
func New(cfg config.Logger) (*zap.Logger, error) {
	output, err := openSink(cfg.Sink)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:       "time",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   colorLevelEncoder(),
		EncodeTime:    zapcore.TimeEncoderOfLayout("[2006-01-02 15:04:05]"),
		EncodeCaller:  zapcore.ShortCallerEncoder,
		EncodeName:    zapcore.FullNameEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		output,
		parseLevel(cfg.Level),
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func openSink(sink string) (zapcore.WriteSyncer, error) {
	switch sink {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}

	if dir := filepath.Dir(sink); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(sink, os.O_WRONLY|os.O_CREATE|os.O_APPEND, permissions)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(file), nil
}

func colorLevelEncoder() zapcore.LevelEncoder {
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		switch l {
		case zapcore.DebugLevel:
			enc.AppendString(color.MagentaString("DEBUG:"))
		case zapcore.InfoLevel:
			enc.AppendString(color.BlueString("INFO:"))
		case zapcore.WarnLevel:
			enc.AppendString(color.YellowString("WARN:"))
		case zapcore.ErrorLevel:
			enc.AppendString(color.RedString("ERROR:"))
		default:
			enc.AppendString(l.String() + ":")
		}
	}
}
