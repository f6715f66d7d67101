package devlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapSink reenvía cada canal al nivel equivalente de zap.
// log → Debug, info → Info, warn → Warn, error → Error.
type zapSink struct {
	s *zap.SugaredLogger
}

// ZapSink envuelve un *zap.Logger como Sink. El caller reportado es el que
// invocó Trace/Info/Warn/Error, no este paquete.
//
// El nivel configurado en l no filtra: qué se escribe lo decide el modo del
// Console (LOG_LEVEL=error no calla los Warn).
func ZapSink(l *zap.Logger) Sink {
	l = l.WithOptions(
		zap.AddCallerSkip(2),
		zap.WrapCore(func(c zapcore.Core) zapcore.Core { return ungatedCore{c} }),
	)
	return &zapSink{s: l.Sugar()}
}

func (z *zapSink) Write(ch Channel, values ...any) {
	switch ch {
	case ChannelLog:
		z.s.Debugln(values...)
	case ChannelInfo:
		z.s.Infoln(values...)
	case ChannelWarn:
		z.s.Warnln(values...)
	default:
		z.s.Errorln(values...)
	}
}

// ungatedCore acepta todos los niveles y delega la escritura en el core
// original, que encodea y escribe sin volver a mirar el nivel.
type ungatedCore struct {
	zapcore.Core
}

func (u ungatedCore) Enabled(zapcore.Level) bool { return true }

func (u ungatedCore) With(fields []zapcore.Field) zapcore.Core {
	return ungatedCore{u.Core.With(fields)}
}

func (u ungatedCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return ce.AddCore(ent, u)
}
