package slotcache

// Fields is a minimal structured field map for logs.
// Key values are passed as Key; adapters render them as hex.
type Fields map[string]any

// Logger is a tiny leveled logger. Provide an adapter around your logging stack
// (see log/zap, log/logrus, log/slog, log/tryfix).
// If Logger is nil in Options, logging is disabled.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// FieldValue converts a field value into a form every logging backend
// prints readably. Keys become hex strings; everything else passes through.
func FieldValue(v any) any {
	switch vv := v.(type) {
	case Key:
		return vv.String()
	case *Key:
		if vv == nil {
			return nil
		}
		return vv.String()
	default:
		return v
	}
}
