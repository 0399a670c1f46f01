package emit

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapEmitter writes events as structured zap log entries.
//
// Failure events log at Error, step starts at Debug, everything else at
// Info. Meta entries become fields in key order.
type ZapEmitter struct {
	logger *zap.Logger
}

// NewZapEmitter creates a ZapEmitter. A nil logger discards everything.
func NewZapEmitter(logger *zap.Logger) *ZapEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapEmitter{logger: logger}
}

// Emit logs the event.
func (z *ZapEmitter) Emit(event Event) {
	level := levelFor(event.Msg)
	ce := z.logger.Check(level, event.Msg)
	if ce == nil {
		return
	}

	fields := make([]zap.Field, 0, 3+len(event.Meta))
	fields = append(fields, zap.String("run_id", event.RunID))
	if event.Step > 0 {
		fields = append(fields, zap.Int("step", event.Step))
	}
	if event.NodeID != "" {
		fields = append(fields, zap.String("node_id", event.NodeID))
	}

	keys := make([]string, 0, len(event.Meta))
	for k := range event.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, event.Meta[k]))
	}

	ce.Write(fields...)
}

func levelFor(msg string) zapcore.Level {
	switch msg {
	case MsgRunError, MsgNodeError:
		return zapcore.ErrorLevel
	case MsgNodeStart:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
