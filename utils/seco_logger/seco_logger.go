package seco_logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 创建 console 格式的 logger, level 取值 debug/info/warn/error, 其他值按 info 处理
func New(level string) (*zap.SugaredLogger, error) {
	conf := zap.NewDevelopmentConfig()
	conf.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	conf.DisableStacktrace = true
	conf.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	l, err := conf.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Nop 未注入 logger 时使用
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// OrNop returns l, or a nop logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return Nop()
	}
	return l
}
