package whatsapp

import (
	"fmt"
	"strings"

	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger forwards whatsmeow logs to zap under its own minimum level.
type zapLogger struct {
	l     *zap.Logger
	level zapcore.Level
}

var _ waLog.Logger = (*zapLogger)(nil)

func newZapLogger(l *zap.Logger, name, level string) *zapLogger {
	lvl := zapcore.WarnLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			lvl = zapcore.WarnLevel
		}
	}
	return &zapLogger{l: l.Named(name), level: lvl}
}

func (z *zapLogger) log(lvl zapcore.Level, msg string, args []any) {
	if lvl < z.level {
		return
	}
	if ce := z.l.Check(lvl, fmt.Sprintf(msg, args...)); ce != nil {
		ce.Write()
	}
}

func (z *zapLogger) Errorf(msg string, args ...any) { z.log(zapcore.ErrorLevel, msg, args) }
func (z *zapLogger) Warnf(msg string, args ...any)  { z.log(zapcore.WarnLevel, msg, args) }
func (z *zapLogger) Infof(msg string, args ...any)  { z.log(zapcore.InfoLevel, msg, args) }
func (z *zapLogger) Debugf(msg string, args ...any) { z.log(zapcore.DebugLevel, msg, args) }

func (z *zapLogger) Sub(module string) waLog.Logger {
	return &zapLogger{l: z.l.Named(module), level: z.level}
}
